package finance

import (
	"math"

	"gonum.org/v1/gonum/floats"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/xerrors"
)

// VolLookup 按 (moneyness = K/F, t) 查询波动率。
type VolLookup func(moneyness, t float64) float64

// Asian 算术平均亚式期权的平均期参数。
// PastTime 为已经过去的平均期长度 (年)，PastAverage 为该期间的平均价。
// Observations 为剩余期限内的观察时间点 (年)，为空时取 T/天数 的等距点。
type Asian struct {
	PastTime     float64   `json:"past_time"    validate:"gte=0"`
	PastAverage  float64   `json:"past_average" validate:"gte=0"`
	Observations []float64 `json:"observations"`
}

// TransformedStrike 将已实现的平均价折入行权价后的等效行权价 K*。
func (a Asian) TransformedStrike(k, t float64) float64 {
	return (a.PastTime+t)*k/t - a.PastTime*a.PastAverage/t
}

// Multiplier 剩余平均期在整个平均期中的权重 T/(past+T)。
func (a Asian) Multiplier(t float64) float64 {
	return t / (a.PastTime + t)
}

// Average 合并已实现平均与路径剩余部分的平均值。
func (a Asian) Average(futureMean, t float64) float64 {
	return (a.PastAverage*a.PastTime + futureMean*t) / (a.PastTime + t)
}

// ObservationTimes 返回观察时间点，默认按 tradingDays 等分剩余期限 t。
func (a Asian) ObservationTimes(t, tradingDays float64) []float64 {
	if len(a.Observations) > 0 {
		return a.Observations
	}
	n := int(math.Max(1, math.Round(t*tradingDays)))
	times := make([]float64, n)
	for i := range times {
		times[i] = t * float64(i+1) / float64(n)
	}
	return times
}

// asianMoments 观察点上的远期价格、波动率与一、二阶矩。
type asianMoments struct {
	times   []float64
	forward []float64
	vols    []float64
	m1, m2  float64
	strike  float64
}

func newAsianMoments(in Inputs, a Asian, vol VolLookup, tradingDays float64) asianMoments {
	times := a.ObservationTimes(in.T, tradingDays)
	n := len(times)
	m := asianMoments{
		times:   times,
		forward: make([]float64, n),
		vols:    make([]float64, n),
		strike:  a.TransformedStrike(in.Strike, in.T),
	}
	for i, t := range times {
		m.forward[i] = in.ForwardAt(t)
		m.vols[i] = in.Vol
		if vol != nil {
			m.vols[i] = vol(in.Strike/m.forward[i], t)
		}
		m.m1 += m.forward[i]
	}
	m.m1 /= float64(n)

	for i := range n {
		fi, vi := m.forward[i], m.vols[i]
		m.m2 += fi * fi * math.Exp(vi*vi*times[i])
		for j := range i {
			m.m2 += 2 * fi * m.forward[j] * math.Exp(m.vols[j]*m.vols[j]*times[j])
		}
	}
	m.m2 /= float64(n * n)
	return m
}

// deepInTheMoney K* ≤ 0 时期权必然被行权，价格为远期价差的现值。
func (m asianMoments) deepInTheMoney(in Inputs, multi float64) float64 {
	if !in.Type.IsCall() {
		return 0
	}
	return multi * (m.m1 - m.strike) * in.DiscountRate()
}

// AsianTurnbullWakeman 以 Turnbull-Wakeman 矩匹配将算术平均近似为对数正态，按期货 BSM 定价。
// vol 为 nil 时所有观察点使用 in.Vol。
func AsianTurnbullWakeman(in Inputs, a Asian, vol VolLookup, tradingDays float64) float64 {
	m := newAsianMoments(in, a, vol, tradingDays)
	multi := a.Multiplier(in.T)
	if m.strike <= 0 {
		return m.deepInTheMoney(in, multi)
	}
	ratio := m.m2 / (m.m1 * m.m1)
	aVol := in.Vol / math.Sqrt(3)
	if ratio > 1 {
		aVol = math.Sqrt(math.Log(ratio) / in.T)
	}
	synthetic := Inputs{
		Spot:     m.m1,
		Strike:   m.strike,
		Rate:     in.Rate,
		Dividend: in.Rate,
		Vol:      aVol,
		T:        in.T,
		Type:     in.Type,
	}
	return BSM(synthetic) * multi
}

// AsianCurran Curran (1994) 以几何平均为条件变量的近似，条件阈值 κ 由单纯形搜索取使价格最大的值。
func AsianCurran(in Inputs, a Asian, vol VolLookup, tradingDays float64) (float64, error) {
	m := newAsianMoments(in, a, vol, tradingDays)
	multi := a.Multiplier(in.T)
	if m.strike <= 0 {
		return m.deepInTheMoney(in, multi), nil
	}

	n := len(m.times)
	fn := float64(n)
	var mu, varG float64
	variance := make([]float64, n)
	for i, t := range m.times {
		variance[i] = m.vols[i] * m.vols[i] * t
		mu += math.Log(m.forward[i])
		varG += variance[i] * float64(2*(n-i)-1)
	}
	mu = mu/fn - 0.5*floats.Sum(variance)/fn
	volG := math.Sqrt(varG) / fn

	cor := make([]float64, n)
	var cum float64
	for i := range n {
		cor[i] = (cum + float64(n-i)*variance[i]) / fn
		cum += variance[i]
	}

	dr := in.DiscountRate()
	price := func(x []float64) float64 {
		kappa := x[0]
		var sum float64
		for i, f := range m.forward {
			sum += f * algomath.NormalCDF((mu+cor[i]-kappa)/volG)
		}
		return dr * (sum/fn - m.strike*algomath.NormalCDF((mu-kappa)/volG))
	}

	res, err := algomath.NelderMead(price, []float64{math.Log(m.strike)}, []float64{0.001}, true)
	if err != nil && res.X == nil {
		return 0, xerrors.Wrap(err, xerrors.ErrInternal, "curran conditioning search failed")
	}
	call := res.Value
	if in.Type.IsCall() {
		return multi * call, nil
	}
	return multi * (call - dr*(m.m1-m.strike)), nil
}

// AsianPayoff 路径剩余部分平均值为 futureMean 时的贴现收益。
func AsianPayoff(in Inputs, a Asian, futureMean float64) float64 {
	avg := a.Average(futureMean, in.T)
	return math.Max(in.Type.Index()*(avg-in.Strike), 0) * in.DiscountRate()
}
