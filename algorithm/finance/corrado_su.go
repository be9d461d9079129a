package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/algorithm/types"
)

// CorradoSuParams 收益分布的偏度与峰度，正态分布对应 (0, 3)。
type CorradoSuParams struct {
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"`
}

// DefaultCorradoSu 返回正态分布的矩参数。
func DefaultCorradoSu() CorradoSuParams {
	return CorradoSuParams{Skew: 0, Kurtosis: 3}
}

// CorradoSu 以偏度与峰度修正 BSM 看涨价格 (Corrado and Su 1996)，
// 看涨价格不低于其下界，看跌由平价关系得到。
func CorradoSu(in Inputs, p CorradoSuParams) float64 {
	st := in.SigmaT()
	w := p.Skew*math.Pow(st, 3)/6 + p.Kurtosis*math.Pow(st, 4)/24
	d := in.D1() - math.Log(1+w)/st
	pdf := algomath.NormalPDF(d)

	q3 := in.Spot * st * (2*st - d) * pdf / (6 * (1 + w))
	q4 := in.Spot * st * (d*d - 3*d*st + 3*st*st - 1) * pdf / (24 * (1 + w))

	call := in
	call.Type = types.OptionTypeCall
	price := math.Max(BSM(call)+p.Skew*q3+(p.Kurtosis-3)*q4, in.CallLowerBound())
	return fromCall(in, price)
}
