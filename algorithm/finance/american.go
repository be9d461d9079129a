package finance

import (
	"errors"
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/xerrors"
)

// BAW 美式期权 Barone-Adesi and Whaley (1987) 近似。
// 看跌期权通过看涨看跌变换求值；无分红的看涨期权不会提前行权，直接返回欧式价格。
// 临界价格以 tol 与 maxIter 控制的牛顿迭代求解，达到迭代上限时以当前边界估计定价并返回 ErrMaxIteration。
func BAW(in Inputs, tol float64, maxIter int) (float64, error) {
	if !in.Type.IsCall() {
		return BAW(in.Transformed(), tol, maxIter)
	}
	if in.Dividend <= 0 {
		return BSM(in), nil
	}

	w := newBAW(in)
	boundary, _, err := algomath.NewtonBisect(w.criticalFunc, w.estimate(), in.Strike, w.upperBound(), tol, maxIter)
	if err != nil && !errors.Is(err, xerrors.ErrMaxIteration) {
		return math.NaN(), xerrors.Wrap(err, xerrors.ErrInternal, "baw critical price")
	}
	if in.Spot >= boundary {
		return in.Spot - in.Strike, err
	}
	return BSM(in) + w.premium(boundary)*math.Pow(in.Spot/boundary, w.q2), err
}

type baw struct {
	in Inputs
	n  float64 // 2b/σ²
	q2 float64
}

func newBAW(in Inputs) baw {
	v2 := in.Vol * in.Vol
	n := 2 * in.CostOfCarry() / v2
	var k float64
	if in.Rate == 0 {
		k = 2 / (v2 * in.T)
	} else {
		k = 2 * in.Rate / (v2 * (1 - math.Exp(-in.Rate*in.T)))
	}
	return baw{in: in, n: n, q2: (1 - n + math.Sqrt((n-1)*(n-1)+4*k)) / 2}
}

// perpetual 永续美式看涨的临界价格。
func (w baw) perpetual() float64 {
	m := 2 * w.in.Rate / (w.in.Vol * w.in.Vol)
	return w.in.Strike / (1 - 2/(1-w.n+math.Sqrt((1-w.n)*(1-w.n)+4*m)))
}

func (w baw) estimate() float64 {
	in := w.in
	sInf := w.perpetual()
	h := -in.Strike / (sInf - in.Strike) * (in.CostOfCarry()*in.T + 2*in.Vol*math.Sqrt(in.T))
	return in.Strike + (sInf-in.Strike)*(1-math.Exp(h))
}

func (w baw) upperBound() float64 {
	upper := math.Max(w.perpetual(), w.estimate())
	if !algomath.IsFinite(upper) || upper <= w.in.Strike {
		upper = 100 * w.in.Strike
	}
	return 2 * upper
}

// premium 提前行权溢价系数 A2。
func (w baw) premium(boundary float64) float64 {
	at := w.in
	at.Spot = boundary
	return (1 - at.DiscountDividend()*algomath.NormalCDF(at.D1())) * boundary / w.q2
}

// criticalFunc 临界价格方程 S - K = C(S) + A2(S) 及其导数。
func (w baw) criticalFunc(s0 float64) (float64, float64, error) {
	at := w.in
	at.Spot = s0
	d1 := at.D1()
	dq := at.DiscountDividend()
	nd1 := algomath.NormalCDF(d1)

	right := BSM(at) + (1-dq*nd1)*s0/w.q2
	left := s0 - at.Strike
	dRight := dq*nd1 + (1-dq*nd1)/w.q2 - dq*algomath.NormalPDF(d1)/at.SigmaT()/w.q2
	return left - right, 1 - dRight, nil
}

// BS2002 美式期权 Bjerksund and Stensland (2002) 近似，是美式价格的下界。
// 看跌期权通过看涨看跌变换求值。
func BS2002(in Inputs) float64 {
	if !in.Type.IsCall() {
		return BS2002(in.Transformed())
	}
	if in.Dividend <= 0 {
		return BSM(in)
	}
	return newBS2002(in).price()
}

// bs2002Rho 两段平直边界的分割点 t1 = ρ²T 对应的相关系数。
var bs2002Rho = math.Sqrt((math.Sqrt(5) - 1) / 2)

type bs2002 struct {
	in     Inputs
	b, v2  float64
	beta   float64
	t1     float64
	i1, i2 float64 // t1 与 T 处的行权边界
}

func newBS2002(in Inputs) bs2002 {
	v2 := in.Vol * in.Vol
	b := in.CostOfCarry()
	part := 0.5 - b/v2
	beta := part + math.Sqrt(part*part+2*in.Rate/v2)

	b0 := math.Max(in.Strike, in.Strike*in.Rate/in.Dividend)
	bInf := in.Strike * beta / (beta - 1)
	boundary := func(t float64) float64 {
		h := -(b*t + 2*in.Vol*math.Sqrt(t)) * in.Strike * in.Strike / ((bInf - b0) * b0)
		return b0 + (bInf-b0)*(1-math.Exp(h))
	}
	t1 := bs2002Rho * bs2002Rho * in.T
	return bs2002{in: in, b: b, v2: v2, beta: beta, t1: t1, i1: boundary(t1), i2: boundary(in.T)}
}

func (m bs2002) alpha(i float64) float64 {
	return (i - m.in.Strike) * math.Pow(i, -m.beta)
}

func (m bs2002) lambda(gamma float64) float64 {
	return -m.in.Rate + gamma*m.b + 0.5*gamma*(gamma-1)*m.v2
}

func (m bs2002) kappa(gamma float64) float64 {
	return 2*m.b/m.v2 + (2*gamma - 1)
}

func (m bs2002) drift(gamma, t float64) float64 {
	return (m.b + (gamma-0.5)*m.v2) * t
}

func (m bs2002) phi(gamma, h float64) float64 {
	s := m.in.Spot
	st := m.in.Vol * math.Sqrt(m.t1)
	p := m.drift(gamma, m.t1)
	d1 := (math.Log(s/h) + p) / st
	d2 := (math.Log(m.i2*m.i2/(s*h)) + p) / st
	body := algomath.NormalCDF(-d1) - math.Pow(m.i2/s, m.kappa(gamma))*algomath.NormalCDF(-d2)
	return math.Exp(m.lambda(gamma)*m.t1) * math.Pow(s, gamma) * body
}

func (m bs2002) psi(gamma, h float64) float64 {
	s, t := m.in.Spot, m.in.T
	i1, i2 := m.i1, m.i2
	st1 := m.in.Vol * math.Sqrt(m.t1)
	st := m.in.Vol * math.Sqrt(t)
	p1 := m.drift(gamma, m.t1)
	p := m.drift(gamma, t)
	kappa := m.kappa(gamma)

	e1 := (math.Log(s/i1) + p1) / st1
	e2 := (math.Log(i2*i2/(s*i1)) + p1) / st1
	e3 := (math.Log(s/i1) - p1) / st1
	e4 := (math.Log(i2*i2/(s*i1)) - p1) / st1

	f1 := (math.Log(s/h) + p) / st
	f2 := (math.Log(i2*i2/(s*h)) + p) / st
	f3 := (math.Log(i1*i1/(s*h)) + p) / st
	f4 := (math.Log(s*i1*i1/(h*i2*i2)) + p) / st

	g1 := algomath.BinormalCDF(-e1, -f1, bs2002Rho)
	g2 := algomath.BinormalCDF(-e2, -f2, bs2002Rho) * math.Pow(i2/s, kappa)
	g3 := algomath.BinormalCDF(-e3, -f3, -bs2002Rho) * math.Pow(i1/s, kappa)
	g4 := algomath.BinormalCDF(-e4, -f4, -bs2002Rho) * math.Pow(i1/i2, kappa)
	return math.Exp(m.lambda(gamma)*t) * math.Pow(s, gamma) * (g1 - g2 - g3 + g4)
}

func (m bs2002) price() float64 {
	s, k := m.in.Spot, m.in.Strike
	if s >= m.i2 {
		return s - k
	}
	a1, a2 := m.alpha(m.i1), m.alpha(m.i2)

	flat := -a2*m.phi(m.beta, m.i2) + m.phi(1, m.i2) - m.phi(1, m.i1) -
		k*m.phi(0, m.i2) + k*m.phi(0, m.i1) + a1*m.phi(m.beta, m.i1)
	curved := -a1*m.psi(m.beta, m.i1) + m.psi(1, m.i1) - m.psi(1, k) -
		k*m.psi(0, m.i1) + k*m.psi(0, k) + a2*math.Pow(s, m.beta)
	return flat + curved
}
