package calculator

import (
	"context"
	"math"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/tracing"
	"github.com/wyfcoding/quant/volatility"
	"github.com/wyfcoding/quant/xerrors"
)

type surfaceCell struct {
	t, m float64
}

// ModelSurface 在 (期限, K/S) 网格上以 Heston 或 SABR 为欧式看涨期权定价，再反解 BSM 隐含波动率构成曲面.
// 每个节点使用自身的期限. 无法反解的节点为 NaN，曲面插值时整行跳过.
func (a *Analytic) ModelSurface(ctx context.Context, c option.Contract, model string, times, moneyness []float64) (*volatility.Surface, error) {
	ctx, span := a.tracer.Start(ctx, a.name+".model_surface")
	defer span.End()
	span.SetAttributes(attribute.String("pricing.model", model))
	start := time.Now()

	surface, err := a.modelSurface(ctx, c, model, times, moneyness)
	status := statusOf(err)
	a.metrics.ObserveCalculation(a.name, "model_surface", status.String(), time.Since(start))
	if err != nil {
		tracing.Fail(span, err, status.String())
		a.logger.WarnContext(ctx, "model surface failed", "model", model, "error", err)
		return nil, err
	}
	return surface, nil
}

func (a *Analytic) modelSurface(ctx context.Context, c option.Contract, model string, times, moneyness []float64) (*volatility.Surface, error) {
	if model != option.MethodHeston && model != option.MethodSABR {
		return nil, xerrors.ErrMethodNotFound.With(nil, "model surface supports heston and sabr, got %q", model)
	}
	if len(times) < 5 || len(moneyness) < 5 {
		return nil, xerrors.ErrInvalidSurface.With(nil, "need at least 5 knots per axis, got %d×%d", len(times), len(moneyness))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cells := make([]surfaceCell, 0, len(times)*len(moneyness))
	for _, t := range times {
		for _, m := range moneyness {
			cells = append(cells, surfaceCell{t: t, m: m})
		}
	}
	vols := iter.Map(cells, func(cell *surfaceCell) float64 {
		return a.cellVol(ctx, c, model, *cell)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grid := make([][]float64, len(times))
	valid := 0
	for i := range times {
		grid[i] = vols[i*len(moneyness) : (i+1)*len(moneyness)]
		for _, v := range grid[i] {
			if !math.IsNaN(v) {
				valid++
			}
		}
	}
	if valid == 0 {
		return nil, xerrors.ErrCalculation.With(nil, "no %s implied volatility could be solved", model)
	}
	return volatility.NewSurface(times, moneyness, grid), nil
}

func (a *Analytic) cellVol(ctx context.Context, c option.Contract, model string, cell surfaceCell) float64 {
	if ctx.Err() != nil || !(cell.t > 0) || !(cell.m > 0) {
		return math.NaN()
	}
	cc := c.WithMaturity(cell.t).WithMethod(model)
	cc.Vanilla.Strike = cell.m * c.Underlying.SpotPrice
	cc.Vanilla.Type = types.OptionTypeCall

	price, err := methodPrice(option.NewEuropean(cc))
	if err != nil {
		return math.NaN()
	}
	cc = cc.WithMethod(option.MethodBSM)
	cc.Vanilla.Target = price
	vol, _, err := a.impliedVol(ctx, option.NewEuropean(cc))
	if err != nil {
		return math.NaN()
	}
	return vol
}
