package calculator

import (
	"context"
	"errors"
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/xerrors"
)

// Analytic 通过期权的解析方法表定价，希腊值由扰动后重新定价得到.
type Analytic struct {
	base
	newton config.NewtonConfig
}

// NewAnalytic 创建解析计算器. 局部波动率默认关闭.
func NewAnalytic(cfg config.PricingConfig, opts ...Option) *Analytic {
	cfg = cfg.Normalized()
	a := &Analytic{newton: cfg.Newton}
	a.base = newBase("analytic", analyticEngine{}, newSettings(false, opts))
	return a
}

type analyticEngine struct{}

func (analyticEngine) supports(o option.Option) error {
	method := o.Contract().Vanilla.MethodName()
	if !option.HasMethod(o, method) {
		return xerrors.ErrUnsupported.With(nil, "%T has no analytic method %q", o, method)
	}
	return nil
}

// combine 任一项达到迭代上限时仍汇总当前估计，并返回该项的错误.
func (analyticEngine) combine(_ context.Context, terms []term) (float64, float64, error) {
	var sum float64
	var capped error
	for _, t := range terms {
		v, err := methodPrice(t.o)
		switch {
		case err == nil:
		case errors.Is(err, xerrors.ErrMaxIteration):
			capped = err
		default:
			return math.NaN(), 0, err
		}
		sum += t.weight * v
	}
	return sum, 0, capped
}

// methodPrice 按合约指定的方法定价. 方法达到迭代上限时保留其估计值与 ErrMaxIteration.
func methodPrice(o option.Option) (float64, error) {
	method := o.Contract().Vanilla.MethodName()
	fn, ok := o.Methods()[method]
	if !ok {
		return math.NaN(), xerrors.ErrMethodNotFound.With(nil, "%T has no method %q", o, method)
	}
	v, err := fn()
	if err != nil {
		if errors.Is(err, xerrors.ErrMaxIteration) && algomath.IsFinite(v) {
			return v, err
		}
		return math.NaN(), xerrors.ErrCalculation.With(err, "method %q", method)
	}
	if math.IsNaN(v) {
		return math.NaN(), xerrors.ErrNaNResult.With(nil, "method %q", method)
	}
	return v, nil
}

// ImpliedVol 求使价格等于合约 Target 的波动率，在 [LowerVol, UpperVol] 内做牛顿二分迭代.
// 初值为当前波动率，越界时取 InitialVol. 达到迭代上限时结果附带当前估计. 调用方的期权不被修改.
func (a *Analytic) ImpliedVol(ctx context.Context, o option.Option) Result {
	return a.run(ctx, OpImpliedVol, o, func(ctx context.Context) (float64, float64, error) {
		if err := a.eng.supports(o); err != nil {
			return 0, 0, err
		}
		return a.impliedVol(ctx, o)
	})
}

func (a *Analytic) impliedVol(ctx context.Context, o option.Option) (float64, float64, error) {
	c := o.Contract()
	lower, upper := a.newton.LowerVol, a.newton.UpperVol
	estimate := c.Vanilla.Vol
	if estimate < lower || estimate > upper {
		estimate = a.newton.InitialVol
	}
	target := c.Vanilla.Target

	fn := func(vol float64) (float64, float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		trial := a.greeks.withVol(o, vol)
		price, err := methodPrice(trial)
		if err != nil {
			return 0, 0, err
		}
		vega, _, err := a.eng.combine(ctx, a.greeks.vega(trial))
		if err != nil {
			return 0, 0, err
		}
		return price - target, vega * 100, nil
	}

	vol, _, err := algomath.NewtonBisect(fn, estimate, lower, upper, c.Models.Solver.Tolerance, a.newton.Iterations)
	if err != nil {
		return vol, 0, unwrapRoot(err)
	}
	return vol, 0, nil
}

// unwrapRoot 求根函数内部的错误被包装为 ErrCalculation，这里取回原始原因以保留其状态.
func unwrapRoot(err error) error {
	e, ok := xerrors.FromError(err)
	if !ok || e.Code != xerrors.ErrCalculation.Code || e.Cause == nil {
		return err
	}
	if _, typed := xerrors.FromError(e.Cause); typed {
		return e.Cause
	}
	return err
}
