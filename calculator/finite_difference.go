package calculator

import (
	"context"
	"math"

	"github.com/wyfcoding/quant/algorithm/pde"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/xerrors"
)

// FiniteDifference 隐式有限差分计算器. delta、gamma、theta 直接取自网格，其余希腊值扰动后重新求解.
type FiniteDifference struct {
	base
	grid pde.Grid
}

// NewFiniteDifference 创建有限差分计算器，局部波动率开关取自网格配置.
func NewFiniteDifference(cfg config.PricingConfig, opts ...Option) *FiniteDifference {
	cfg = cfg.Normalized()
	grid := pde.GridFromConfig(cfg.FiniteDifference)
	f := &FiniteDifference{grid: grid}
	f.base = newBase("finite_difference", fdEngine{grid: grid}, newSettings(grid.LocalVol, opts))
	return f
}

// Grid 返回计算器使用的网格.
func (f *FiniteDifference) Grid() pde.Grid { return f.grid }

type fdEngine struct {
	grid pde.Grid
}

func (fdEngine) supports(o option.Option) error {
	_, err := asFD(o)
	return err
}

func asFD(o option.Option) (option.FiniteDifferencePricer, error) {
	p, ok := o.(option.FiniteDifferencePricer)
	if !ok {
		return nil, xerrors.ErrUnsupported.With(nil, "%T has no finite difference payoff", o)
	}
	return p, nil
}

func (e fdEngine) solve(o option.Option) (*pde.Solution, error) {
	p, err := asFD(o)
	if err != nil {
		return nil, err
	}
	return pde.Solve(p, e.grid)
}

func (e fdEngine) combine(ctx context.Context, terms []term) (float64, float64, error) {
	var sum float64
	for _, t := range terms {
		if err := ctx.Err(); err != nil {
			return math.NaN(), 0, err
		}
		sol, err := e.solve(t.o)
		if err != nil {
			return math.NaN(), 0, err
		}
		sum += t.weight * sol.Price()
	}
	return sum, 0, nil
}

// fromGrid 求解一次网格并取出所需的量.
func (f *FiniteDifference) fromGrid(ctx context.Context, op string, o option.Option, pick func(*pde.Solution) float64) Result {
	return f.run(ctx, op, o, func(context.Context) (float64, float64, error) {
		sol, err := f.eng.(fdEngine).solve(o)
		if err != nil {
			return math.NaN(), 0, err
		}
		return pick(sol), 0, nil
	})
}

// Price 现价节点上的期权价格.
func (f *FiniteDifference) Price(ctx context.Context, o option.Option) Result {
	return f.fromGrid(ctx, OpPrice, o, (*pde.Solution).Price)
}

// Delta 现价两侧节点的中心差分.
func (f *FiniteDifference) Delta(ctx context.Context, o option.Option) Result {
	return f.fromGrid(ctx, OpDelta, o, (*pde.Solution).Delta)
}

// Gamma 网格上的二阶差分.
func (f *FiniteDifference) Gamma(ctx context.Context, o option.Option) Result {
	return f.fromGrid(ctx, OpGamma, o, (*pde.Solution).Gamma)
}

// Theta 首个时间步上的每日时间价值.
func (f *FiniteDifference) Theta(ctx context.Context, o option.Option) Result {
	return f.fromGrid(ctx, OpTheta, o, (*pde.Solution).Theta)
}

// EuropeanError 同一合约下欧式解析价与网格价之差.
func (f *FiniteDifference) EuropeanError(ctx context.Context, o option.Option) Result {
	return f.run(ctx, "european_error", o, func(context.Context) (float64, float64, error) {
		v, err := pde.EuropeanError(o.Contract(), f.grid)
		return v, 0, err
	})
}
