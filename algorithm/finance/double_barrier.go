package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/algorithm/types"
)

const (
	defaultSeriesIterations = 50
	defaultSeriesTolerance  = 1e-8
)

// DoubleBarrier 双障碍参数。曲率 UpperCurve、LowerCurve 使障碍随时间按 e^{δt} 变化。
// MaxIteration 与 Tolerance 控制级数截断，零值时取 50 与 1e-8。
type DoubleBarrier struct {
	Upper        float64           `json:"upper"         validate:"gt=0"`
	Lower        float64           `json:"lower"         validate:"gt=0,ltfield=Upper"`
	UpperCurve   float64           `json:"upper_curve"`
	LowerCurve   float64           `json:"lower_curve"`
	Type         types.BarrierType `json:"type"`
	MaxIteration int               `json:"max_iteration"`
	Tolerance    float64           `json:"tolerance"`
}

// Touched 价格 s 是否已越过任一障碍。
func (d DoubleBarrier) Touched(s float64) bool {
	return s < d.Lower || s > d.Upper
}

// TouchedAt 价格 s 在 t 时刻是否越过带曲率的障碍。
func (d DoubleBarrier) TouchedAt(s, t float64) bool {
	return s < d.Lower*math.Exp(d.LowerCurve*t) || s > d.Upper*math.Exp(d.UpperCurve*t)
}

func (d DoubleBarrier) series() (int, float64) {
	n, tol := d.MaxIteration, d.Tolerance
	if n <= 0 {
		n = defaultSeriesIterations
	}
	if tol <= 0 {
		tol = defaultSeriesTolerance
	}
	return n, tol
}

// DoubleBarrierPrice 双障碍期权 Ikeda and Kunitomo (1992) 价格，敲入由平价 vanilla - out 得到。
func DoubleBarrierPrice(in Inputs, d DoubleBarrier) float64 {
	out := 0.0
	if !d.Touched(in.Spot) {
		out = ikedaKunitomo{in: in, d: d}.out()
	}
	if d.Type.IsIn() {
		return BSM(in) - out
	}
	return out
}

type ikedaKunitomo struct {
	in Inputs
	d  DoubleBarrier
}

func (m ikedaKunitomo) c1(i float64) float64 {
	v2 := m.in.Vol * m.in.Vol
	return 2*(m.in.CostOfCarry()-m.d.LowerCurve-i*(m.d.UpperCurve-m.d.LowerCurve))/v2 + 1
}

func (m ikedaKunitomo) c2(i float64) float64 {
	return 2 * i * (m.d.UpperCurve - m.d.LowerCurve) / (m.in.Vol * m.in.Vol)
}

func (m ikedaKunitomo) c3(i float64) float64 {
	v2 := m.in.Vol * m.in.Vol
	return 2*(m.in.CostOfCarry()-m.d.LowerCurve+i*(m.d.UpperCurve-m.d.LowerCurve))/v2 + 1
}

// logPrices 依次为 ln S、ln K、ln U、ln L 以及看涨取上障碍、看跌取下障碍的到期曲线价格。
func (m ikedaKunitomo) logPrices() [5]float64 {
	t := m.in.T
	curve := m.d.Upper * math.Exp(m.d.UpperCurve*t)
	if !m.in.Type.IsCall() {
		curve = m.d.Lower * math.Exp(m.d.LowerCurve*t)
	}
	return [5]float64{
		math.Log(m.in.Spot), math.Log(m.in.Strike), math.Log(m.d.Upper), math.Log(m.d.Lower), math.Log(curve),
	}
}

// weights 第 idx (1..4) 个积分限的对数价格系数。
func (m ikedaKunitomo) weights(idx int, i float64) [5]float64 {
	var w [5]float64
	upperHalf := idx <= 2
	even := idx%2 == 0
	call := m.in.Type.IsCall()

	w[0] = -1
	w[2] = -2 * i
	w[3] = 2*i + 2
	if upperHalf {
		w[0] = 1
		w[2] = 2 * i
		w[3] = -2 * i
	}
	// 看涨：K 取 (-1, 0, -1, 0)，曲线取 (0, -1, 0, -1)；看跌互换。
	if even == call {
		w[4] = -1
	} else {
		w[1] = -1
	}
	return w
}

func (m ikedaKunitomo) x(idx int, i float64) float64 {
	lp := m.logPrices()
	w := m.weights(idx, i)
	var dot float64
	for j := range lp {
		dot += lp[j] * w[j]
	}
	drift := (m.in.CostOfCarry() + m.in.Vol*m.in.Vol/2) * m.in.T
	return (dot + drift) / m.in.SigmaT()
}

func (m ikedaKunitomo) term(i float64) float64 {
	s, k := m.in.Spot, m.in.Strike
	u, l := m.d.Upper, m.d.Lower
	st := m.in.SigmaT()
	p1 := math.Pow(u/l, i)
	p2 := l / s
	p3 := p2 / p1
	n := algomath.NormalCDF
	x1, x2, x3, x4 := m.x(1, i), m.x(2, i), m.x(3, i), m.x(4, i)

	spotPart := math.Pow(p1, m.c1(i))*math.Pow(p2, m.c2(i))*(n(x1)-n(x2)) -
		math.Pow(p3, m.c3(i))*(n(x3)-n(x4))
	strikePart := math.Pow(p1, m.c1(i)-2)*math.Pow(p2, m.c2(i))*(n(x1-st)-n(x2-st)) -
		math.Pow(p3, m.c3(i)-2)*(n(x3-st)-n(x4-st))

	return m.in.Type.Index() * (s*m.in.DiscountDividend()*spotPart - k*m.in.DiscountRate()*strikePart)
}

func (m ikedaKunitomo) out() float64 {
	maxIter, tol := m.d.series()
	price := m.term(0)
	for i := 1; i < maxIter; i++ {
		add := m.term(float64(i)) + m.term(float64(-i))
		price += add
		if math.Abs(add) < tol {
			break
		}
	}
	return price
}

// DoubleBinaryPrice 双障碍二元期权 Hui (1996) 价格。
// 触碰即付：任一障碍被触碰时支付 cash；到期支付：按是否触碰与敲入敲出在到期支付 cash。
func DoubleBinaryPrice(in Inputs, d DoubleBarrier, cash float64, timing types.PayoffTiming) float64 {
	dr := in.DiscountRate()
	if d.Touched(in.Spot) {
		switch {
		case timing == types.PayAtHit:
			return cash
		case d.Type.IsIn():
			return cash * dr
		default:
			return 0
		}
	}
	h := newHui(in, d)
	if timing == types.PayAtHit {
		return cash * (h.oneTouch(d.Upper, d.Lower) + h.oneTouch(d.Lower, d.Upper))
	}
	out := cash * h.noTouch()
	if d.Type.IsIn() {
		return cash*dr - out
	}
	return out
}

type hui struct {
	in          Inputs
	d           DoubleBarrier
	alpha, beta float64
	z           float64
}

func newHui(in Inputs, d DoubleBarrier) hui {
	v2 := in.Vol * in.Vol
	alpha := 0.5 - in.CostOfCarry()/v2
	return hui{
		in:    in,
		d:     d,
		alpha: alpha,
		beta:  -alpha*alpha - 2*in.Rate/v2,
		z:     math.Log(d.Upper / d.Lower),
	}
}

func (h hui) decay(q float64) float64 {
	st := h.in.SigmaT()
	return math.Exp(-(q*q - h.beta) * st * st / 2)
}

// oneTouch 触碰 pay 障碍时支付 1、触碰 knock 障碍时作废的期权价值。
func (h hui) oneTouch(knock, pay float64) float64 {
	maxIter, tol := h.d.series()
	zz := math.Log(knock / pay)
	logSP := math.Log(h.in.Spot / pay)
	var sum float64
	for i := 1; i <= maxIter; i++ {
		ip := float64(i) * math.Pi
		q := ip / zz
		add := 2 / ip * (h.beta - q*q*h.decay(q)) / (q*q - h.beta) * math.Sin(q*logSP)
		sum += add
		if math.Abs(add) < tol {
			break
		}
	}
	return math.Pow(h.in.Spot/pay, h.alpha) * (sum + 1 - logSP/zz)
}

// noTouch 到期前未触碰任一障碍时在到期支付 1 的期权价值。
func (h hui) noTouch() float64 {
	maxIter, tol := h.d.series()
	s, u, l := h.in.Spot, h.d.Upper, h.d.Lower
	var price float64
	for i := 1; i <= maxIter; i++ {
		q := float64(i) * math.Pi / h.z
		num := math.Pow(s/l, h.alpha) - math.Pow(-1, float64(i))*math.Pow(s/u, h.alpha)
		add := 2 * q / h.z * num / (h.alpha*h.alpha + q*q) * math.Sin(q*math.Log(s/l)) * h.decay(q)
		price += add
		if math.Abs(add) < tol {
			break
		}
	}
	return price
}
