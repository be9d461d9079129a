package calculator

import (
	"context"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/underlying"
	"github.com/wyfcoding/quant/volatility"
)

// term 线性组合中的一项 weight·P(o).
type term struct {
	o      option.Option
	weight float64
}

// engine 对一组扰动后期权的价格做线性组合. 蒙特卡洛引擎在同一组随机数上求值.
type engine interface {
	// supports 返回 nil 表示可为 o 计算希腊值.
	supports(o option.Option) error
	// combine 返回 Σ weight·P(o) 及其误差界.
	combine(ctx context.Context, terms []term) (value, mcErr float64, err error)
}

// greeks 把各希腊值表示为价格的有限差分组合.
type greeks struct {
	localVol bool
}

func (g greeks) surface(c option.Contract) bool { return g.localVol && c.HasSurface() }

// withSpot 替换现价，局部波动率模式下在 (K/S, T) 处重新查询波动率.
func (g greeks) withSpot(o option.Option, s float64) option.Option {
	c := o.Contract().WithSpot(s)
	if g.surface(c) {
		c = c.WithVol(c.Surface.Vol(volatility.Moneyness(c.Vanilla.Strike, s), c.Vanilla.Maturity))
	}
	return o.WithContract(c)
}

// withMaturity 替换剩余期限，局部波动率模式下在 (K/S, t) 处重新查询波动率.
func (g greeks) withMaturity(o option.Option, t float64) option.Option {
	c := o.Contract().WithMaturity(t)
	if g.surface(c) {
		c = c.WithVol(c.Surface.Vol(volatility.Moneyness(c.Vanilla.Strike, c.Underlying.SpotPrice), t))
	}
	return o.WithContract(c)
}

// withVol 替换波动率，局部波动率模式下曲面同步平移.
func (g greeks) withVol(o option.Option, vol float64) option.Option {
	c := o.Contract()
	if g.surface(c) {
		c = c.WithSurface(c.Surface.Shifted(vol - c.Vanilla.Vol))
	}
	return o.WithContract(c.WithVol(vol))
}

func withRate(o option.Option, r float64) option.Option {
	return o.WithContract(o.Contract().WithRate(r))
}

func withDividend(o option.Option, q float64) option.Option {
	return o.WithContract(o.Contract().WithDividend(q))
}

// difference (P(upper) - P(lower))/denominator.
func difference(lower, upper option.Option, denominator float64) []term {
	return []term{{o: lower, weight: -1 / denominator}, {o: upper, weight: 1 / denominator}}
}

func scale(terms []term, k float64) []term {
	out := make([]term, len(terms))
	for i, t := range terms {
		out[i] = term{o: t.o, weight: t.weight * k}
	}
	return out
}

func (g greeks) delta(o option.Option) []term {
	c := o.Contract()
	ss := algomath.MidDiff(c.Underlying.SpotPrice, c.Precision.Spot)
	return difference(g.withSpot(o, ss[0]), g.withSpot(o, ss[1]), ss[1]-ss[0])
}

// gamma 两个扰动现价处的 delta 之差除以现价差.
func (g greeks) gamma(o option.Option) []term {
	c := o.Contract()
	ss := algomath.MidDiff(c.Underlying.SpotPrice, c.Precision.Spot)
	width := ss[1] - ss[0]
	lower := scale(g.delta(g.withSpot(o, ss[0])), -1/width)
	upper := scale(g.delta(g.withSpot(o, ss[1])), 1/width)
	return append(lower, upper...)
}

// vega 每 1% 波动率的价格变化.
func (g greeks) vega(o option.Option) []term {
	c := o.Contract()
	vv := algomath.MidDiff(c.Vanilla.Vol, c.Precision.Vol)
	return difference(g.withVol(o, vv[0]), g.withVol(o, vv[1]), (vv[1]-vv[0])*100)
}

// theta 每日时间价值 (P(T-) - P(T))/ΔT/365.
func (g greeks) theta(o option.Option) []term {
	c := o.Contract()
	tt := algomath.BackwardDiff(c.Vanilla.Maturity, c.Precision.Time)
	return difference(g.withMaturity(o, tt[1]), g.withMaturity(o, tt[0]), (tt[1]-tt[0])*365)
}

// rho 每个基点利率的价格变化.
func (g greeks) rho(o option.Option) []term {
	c := o.Contract()
	rr := algomath.MidDiff(c.Underlying.RiskFreeRate, c.Precision.Rate)
	return difference(withRate(o, rr[0]), withRate(o, rr[1]), (rr[1]-rr[0])*10000)
}

// rho2 每个基点分红率的价格变化. 期货标的没有独立的分红率，返回空组合.
func (g greeks) rho2(o option.Option) []term {
	c := o.Contract()
	if c.Underlying.Kind == underlying.Future {
		return nil
	}
	qq := algomath.MidDiff(c.Underlying.DividendRate, c.Precision.Dividend)
	return difference(withDividend(o, qq[0]), withDividend(o, qq[1]), (qq[1]-qq[0])*10000)
}
