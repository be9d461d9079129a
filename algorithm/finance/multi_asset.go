package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/xerrors"
)

// 多资产期权约定：第一条腿携带行权价、期限、期权类型与贴现利率，其余腿只提供标的、利率、股息与波动率。

// Spread 价差期权 max(±(F1 - F2 - K), 0) 的 Bjerksund-Stensland (2011) 下界，
// 参数 (a, b) 由单纯形搜索取使价格最大的值。K < 0 时交换两腿并翻转期权类型。
func Spread(leg1, leg2 Inputs, rho float64) (float64, error) {
	if leg1.Strike < 0 {
		swapped := leg2
		swapped.Strike = -leg1.Strike
		swapped.T = leg1.T
		swapped.Type = leg1.Type.Flip()
		return Spread(swapped, leg1, rho)
	}

	t := leg1.T
	k := leg1.Strike
	f1, f2 := leg1.ForwardAt(t), leg2.ForwardAt(t)
	v1, v2 := leg1.Vol, leg2.Vol
	dr := leg1.DiscountRate()
	sqrtT := math.Sqrt(t)

	price := func(x []float64) float64 {
		a, b := x[0], x[1]
		bv2 := b * v2
		vol := math.Sqrt(v1*v1 - 2*rho*v1*bv2 + bv2*bv2)
		st := vol * sqrtT
		lm := math.Log(f1 / a)
		d1 := (lm + (v1*v1/2-rho*v1*bv2+bv2*bv2/2)*t) / st
		d2 := (lm + (-v1*v1/2+rho*v1*v2+bv2*bv2/2-bv2*v2)*t) / st
		d3 := (lm + (-v1*v1/2+bv2*bv2/2)*t) / st
		call := dr * (f1*algomath.NormalCDF(d1) - f2*algomath.NormalCDF(d2) - k*algomath.NormalCDF(d3))
		if leg1.Type.IsCall() {
			return call
		}
		return call - dr*(f1-f2-k)
	}

	start := []float64{f2 + k, f2 / (f2 + k)}
	res, err := algomath.NelderMead(price, start, []float64{0.1, 0.1}, true)
	if err != nil && res.X == nil {
		return 0, xerrors.Wrap(err, xerrors.ErrInternal, "spread parameter search failed")
	}
	return res.Value, nil
}

// Quotient 比值期权 max(±(F1/F2 - K), 0)，比值的远期含 e^{(σ2² - ρσ1σ2)T} 的凸性调整。
func Quotient(leg1, leg2 Inputs, rho float64) float64 {
	t := leg1.T
	v1, v2 := leg1.Vol, leg2.Vol
	forward := leg1.ForwardAt(t) / leg2.ForwardAt(t) * math.Exp((v2*v2-rho*v1*v2)*t)
	synthetic := Inputs{
		Spot:     forward,
		Strike:   leg1.Strike,
		Rate:     leg1.Rate,
		Dividend: leg1.Rate,
		Vol:      math.Sqrt(v1*v1 + v2*v2 - 2*rho*v1*v2),
		T:        t,
		Type:     leg1.Type,
	}
	return BSM(synthetic)
}

// ValidateCorrelation 校验相关系数矩阵为 n x n 对称、对角为 1 且元素在 [-1, 1] 内。
func ValidateCorrelation(corr [][]float64, n int) (*algomath.Matrix, error) {
	if len(corr) != n {
		return nil, xerrors.ErrDimMismatch.With(nil, "correlation has %d rows, want %d", len(corr), n)
	}
	m, err := algomath.NewMatrixFromData(corr)
	if err != nil {
		return nil, err
	}
	if m.Cols != n {
		return nil, xerrors.ErrNotSquare.With(nil, "correlation is %dx%d", m.Rows, m.Cols)
	}
	for i := range n {
		if math.Abs(m.Get(i, i)-1) > 1e-12 {
			return nil, xerrors.ErrInvalidInput.With(nil, "correlation diagonal %d = %v", i, m.Get(i, i))
		}
		for j := range i {
			c := m.Get(i, j)
			if math.Abs(c-m.Get(j, i)) > 1e-12 || math.Abs(c) > 1 {
				return nil, xerrors.ErrInvalidInput.With(nil, "correlation (%d,%d) = %v", i, j, c)
			}
		}
	}
	return m, nil
}

// BasketSynthetic 以一、二阶矩匹配把一篮子标的合成为单一期货标的：
// m1 = ΣF_i，m2 = Σ_ij F_i F_j e^{ρ_ij σ_i σ_j T}，σ = √(ln(m2/m1²)/T)。
func BasketSynthetic(legs []Inputs, corr [][]float64) (Inputs, error) {
	n := len(legs)
	if n == 0 {
		return Inputs{}, xerrors.ErrEmptyData.With(nil, "basket has no legs")
	}
	c, err := ValidateCorrelation(corr, n)
	if err != nil {
		return Inputs{}, err
	}

	first := legs[0]
	t := first.T
	forwards := make([]float64, n)
	var m1 float64
	for i, leg := range legs {
		forwards[i] = leg.ForwardAt(t)
		m1 += forwards[i]
	}
	cov := algomath.NewMatrix(n, n)
	for i := range n {
		for j := range n {
			cov.Set(i, j, math.Exp(c.Get(i, j)*legs[i].Vol*legs[j].Vol*t))
		}
	}
	m2, err := cov.QuadraticForm(forwards)
	if err != nil {
		return Inputs{}, err
	}

	return Inputs{
		Spot:     m1,
		Strike:   first.Strike,
		Rate:     first.Rate,
		Dividend: first.Rate,
		Vol:      math.Sqrt(math.Log(m2/(m1*m1)) / t),
		T:        t,
		Type:     first.Type,
	}, nil
}

// Basket 篮子期权的矩匹配 BSM 价格。
func Basket(legs []Inputs, corr [][]float64) (float64, error) {
	synthetic, err := BasketSynthetic(legs, corr)
	if err != nil {
		return 0, err
	}
	return BSM(synthetic), nil
}
