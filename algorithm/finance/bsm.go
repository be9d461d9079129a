// Package finance 提供期权定价的解析与半解析模型.
// 所有函数都是纯函数，只依赖传入的参数.
package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/algorithm/types"
)

// Inputs 单资产期权的定价输入。期货标的的 Dividend 应等于 Rate。
type Inputs struct {
	Spot     float64
	Strike   float64
	Rate     float64
	Dividend float64
	Vol      float64
	T        float64
	Type     types.OptionType
}

// SigmaT 返回 σ√T。
func (in Inputs) SigmaT() float64 { return in.Vol * math.Sqrt(in.T) }

// CostOfCarry 返回 r - q。
func (in Inputs) CostOfCarry() float64 { return in.Rate - in.Dividend }

// Forward 返回到期远期价格。
func (in Inputs) Forward() float64 { return in.ForwardAt(in.T) }

// ForwardAt 返回 t 时刻的远期价格。
func (in Inputs) ForwardAt(t float64) float64 {
	return in.Spot * math.Exp(in.CostOfCarry()*t)
}

// DiscountRate 返回 e^{-rT}。
func (in Inputs) DiscountRate() float64 { return math.Exp(-in.Rate * in.T) }

// DiscountDividend 返回 e^{-qT}。
func (in Inputs) DiscountDividend() float64 { return math.Exp(-in.Dividend * in.T) }

// D1 远期形式的 d1。
func (in Inputs) D1() float64 {
	st := in.SigmaT()
	return (math.Log(in.Forward()/in.Strike) + st*st/2) / st
}

// D2 返回 d1 - σ√T。
func (in Inputs) D2() float64 { return in.D1() - in.SigmaT() }

// CallLowerBound 看涨期权的下界 S·e^{-qT} - K·e^{-rT}，也是看涨与看跌的价差。
func (in Inputs) CallLowerBound() float64 {
	return in.Spot*in.DiscountDividend() - in.Strike*in.DiscountRate()
}

// Transformed 看涨看跌互换变换：交换 S 与 K、r 与 q，并翻转期权类型。
func (in Inputs) Transformed() Inputs {
	out := in
	out.Spot, out.Strike = in.Strike, in.Spot
	out.Rate, out.Dividend = in.Dividend, in.Rate
	out.Type = in.Type.Flip()
	return out
}

// BSM 欧式期权 Black-Scholes-Merton 价格，看跌由平价关系得到。
func BSM(in Inputs) float64 {
	call := in.Spot*in.DiscountDividend()*algomath.NormalCDF(in.D1()) -
		in.Strike*in.DiscountRate()*algomath.NormalCDF(in.D2())
	return fromCall(in, call)
}

func fromCall(in Inputs, call float64) float64 {
	if in.Type.IsCall() {
		return call
	}
	return call - in.CallLowerBound()
}

// BSMVega 价格对波动率的一阶导数 (未缩放)。
func BSMVega(in Inputs) float64 {
	return in.Spot * in.DiscountDividend() * algomath.NormalPDF(in.D1()) * math.Sqrt(in.T)
}

// CashOrNothing 现金或无期权：到期价内时支付 cash。
func CashOrNothing(in Inputs, cash float64) float64 {
	return in.DiscountRate() * cash * algomath.NormalCDF(in.Type.Index()*in.D2())
}

// Greeks 希腊值，缩放方式与数值希腊值一致：
// Vega 按 1% 波动率，Theta 按每日，Rho 与 Rho2 按 1 个基点。
type Greeks struct {
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
	Rho2  float64
}

// ClosedFormGreeks 现货标的欧式期权的解析希腊值。
func ClosedFormGreeks(in Inputs) Greeks {
	s, k, t := in.Spot, in.Strike, in.T
	d1, d2 := in.D1(), in.D2()
	dq, dr := in.DiscountDividend(), in.DiscountRate()
	pdf := algomath.NormalPDF(d1)
	sqrtT := math.Sqrt(t)

	g := Greeks{
		Gamma: dq * pdf / (s * in.Vol * sqrtT),
		Vega:  s * dq * pdf * sqrtT / 100,
	}
	decay := -s * dq * pdf * in.Vol / (2 * sqrtT)
	if in.Type.IsCall() {
		g.Delta = dq * algomath.NormalCDF(d1)
		g.Theta = (decay - in.Rate*k*dr*algomath.NormalCDF(d2) + in.Dividend*s*dq*algomath.NormalCDF(d1)) / 365
		g.Rho = k * t * dr * algomath.NormalCDF(d2) / 10000
		g.Rho2 = -s * t * dq * algomath.NormalCDF(d1) / 10000
	} else {
		g.Delta = dq * (algomath.NormalCDF(d1) - 1)
		g.Theta = (decay + in.Rate*k*dr*algomath.NormalCDF(-d2) - in.Dividend*s*dq*algomath.NormalCDF(-d1)) / 365
		g.Rho = -k * t * dr * algomath.NormalCDF(-d2) / 10000
		g.Rho2 = s * t * dq * algomath.NormalCDF(-d1) / 10000
	}
	return g
}
