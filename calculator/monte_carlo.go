package calculator

import (
	"context"
	"math"

	"github.com/wyfcoding/quant/algorithm/sim"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

// MonteCarlo 蒙特卡洛计算器. 希腊值在同一组随机数上对扰动合约求差分，结果附带误差界.
type MonteCarlo struct {
	base
	engine *sim.Engine
}

// NewMonteCarlo 创建使用共享工作池 pool 的蒙特卡洛计算器.
func NewMonteCarlo(cfg config.PricingConfig, pool *worker.Pool, opts ...Option) *MonteCarlo {
	cfg = cfg.Normalized()
	params := sim.ParamsFromConfig(cfg.MonteCarlo)
	s := newSettings(params.LocalVol, opts)
	m := &MonteCarlo{engine: sim.NewEngine(pool, params)}
	m.base = newBase("monte_carlo", mcEngine{engine: m.engine, metrics: s.metrics, logger: s.logger}, s)
	return m
}

// Params 返回归一化后的模拟参数.
func (m *MonteCarlo) Params() sim.Params { return m.engine.Params() }

type mcEngine struct {
	engine  *sim.Engine
	metrics *metrics.Metrics
	logger  *logging.Logger
}

func (mcEngine) supports(o option.Option) error {
	_, err := asMC(o)
	return err
}

func asMC(o option.Option) (option.MonteCarloPricer, error) {
	p, ok := o.(option.MonteCarloPricer)
	if !ok {
		return nil, xerrors.ErrUnsupported.With(nil, "%T has no path payoff", o)
	}
	return p, nil
}

// combine 把各项收益合成一个 sampler，一次模拟得到组合的均值与误差.
func (e mcEngine) combine(ctx context.Context, terms []term) (float64, float64, error) {
	samplers := make([]sim.Sampler, len(terms))
	weights := make([]float64, len(terms))
	for i, t := range terms {
		p, err := asMC(t.o)
		if err != nil {
			return math.NaN(), 0, err
		}
		samplers[i] = e.engine.PayoffSampler(p)
		weights[i] = t.weight
	}

	sampler := samplers[0]
	if len(terms) > 1 || weights[0] != 1 {
		sampler = func(z []float64) float64 {
			var sum float64
			for i, s := range samplers {
				sum += weights[i] * s(z)
			}
			return sum
		}
	}

	defer e.logger.Timed(ctx, "monte carlo run", "terms", len(terms))()
	est, err := e.engine.Run(ctx, sampler)
	if err != nil {
		return math.NaN(), 0, err
	}
	e.metrics.AddPaths(operationOf(len(terms)), est.Paths)
	return est.Value, est.Error, nil
}

func operationOf(terms int) string {
	if terms == 1 {
		return OpPrice
	}
	return "greek"
}
