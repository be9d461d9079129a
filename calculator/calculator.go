package calculator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wyfcoding/quant/async"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/tracing"
	"github.com/wyfcoding/quant/xerrors"
)

// 操作名，同时作为指标与 span 的标签.
const (
	OpPrice      = "price"
	OpDelta      = "delta"
	OpGamma      = "gamma"
	OpVega       = "vega"
	OpTheta      = "theta"
	OpRho        = "rho"
	OpRho2       = "rho2"
	OpImpliedVol = "implied_vol"
)

// Calculator 三种计算器的公共接口.
type Calculator interface {
	Name() string
	Price(ctx context.Context, o option.Option) Result
	Delta(ctx context.Context, o option.Option) Result
	Gamma(ctx context.Context, o option.Option) Result
	Vega(ctx context.Context, o option.Option) Result
	Theta(ctx context.Context, o option.Option) Result
	Rho(ctx context.Context, o option.Option) Result
	Rho2(ctx context.Context, o option.Option) Result
	ImpliedVol(ctx context.Context, o option.Option) Result
}

type settings struct {
	tracer   trace.Tracer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	localVol bool
}

// Option 计算器配置选项.
type Option func(*settings)

// WithTracer 设置 span 使用的 Tracer，默认取全局 TracerProvider.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMetrics 记录计算次数与耗时.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithLogger 设置日志记录器.
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLocalVol 希腊值扰动时是否按曲面重新查询波动率.
func WithLocalVol(enabled bool) Option {
	return func(s *settings) { s.localVol = enabled }
}

func newSettings(localVol bool, opts []Option) settings {
	s := settings{localVol: localVol}
	for _, opt := range opts {
		opt(&s)
	}
	if s.tracer == nil {
		s.tracer = tracing.Tracer("calculator")
	}
	if s.logger == nil {
		s.logger = logging.Default().Named("calculator")
	}
	return s
}

// base 计算器的公共部分：希腊值组合、span、指标与日志.
type base struct {
	name   string
	eng    engine
	greeks greeks
	settings
}

func newBase(name string, eng engine, s settings) base {
	return base{name: name, eng: eng, greeks: greeks{localVol: s.localVol}, settings: s}
}

// Name 计算器名称.
func (b *base) Name() string { return b.name }

// run 执行一次计算：校验期权、恢复 panic、记录 span、指标与日志.
func (b *base) run(ctx context.Context, op string, o option.Option, fn func(ctx context.Context) (float64, float64, error)) (res Result) {
	ctx, span := b.tracer.Start(ctx, b.name+"."+op, trace.WithAttributes(
		attribute.String("pricing.calculator", b.name),
		attribute.String("pricing.operation", op),
		attribute.String("pricing.option", kindOf(o)),
	))
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			res = failed(xerrors.ErrCalculation.With(async.PanicError(rec), "%s %s", b.name, op))
		}
		b.finish(ctx, span, op, res, time.Since(start))
	}()

	if o == nil {
		return failed(xerrors.ErrInvalidInput.With(nil, "nil option"))
	}
	span.SetAttributes(attribute.String("pricing.method", o.Contract().Vanilla.MethodName()))
	if err := o.Validate(); err != nil {
		return failed(err)
	}
	value, mcErr, err := fn(ctx)
	return newResult(value, mcErr, err)
}

func (b *base) finish(ctx context.Context, span trace.Span, op string, res Result, elapsed time.Duration) {
	defer span.End()
	span.SetAttributes(
		attribute.String("pricing.status", res.Status.String()),
		attribute.Float64("pricing.value", res.Value),
	)
	if res.MCError != 0 {
		span.SetAttributes(attribute.Float64("pricing.mc_error", res.MCError))
	}
	b.metrics.ObserveCalculation(b.name, op, res.Status.String(), elapsed)

	if res.Err != nil {
		tracing.Fail(span, res.Err, res.Status.String())
		b.logger.WarnContext(ctx, "pricing calculation failed",
			"calculator", b.name, "operation", op, "status", res.Status.String(), "error", res.Err)
		return
	}
	b.logger.DebugContext(ctx, "pricing calculation finished",
		"calculator", b.name, "operation", op, "value", res.Value, "duration", elapsed)
}

// greek 先确认引擎支持该期权，再对扰动组合求值.
func (b *base) greek(ctx context.Context, op string, o option.Option, build func(option.Option) []term) Result {
	return b.run(ctx, op, o, func(ctx context.Context) (float64, float64, error) {
		if err := b.eng.supports(o); err != nil {
			return 0, 0, err
		}
		terms := build(o)
		if len(terms) == 0 {
			return 0, 0, nil
		}
		return b.eng.combine(ctx, terms)
	})
}

// Price 期权价格.
func (b *base) Price(ctx context.Context, o option.Option) Result {
	return b.run(ctx, OpPrice, o, func(ctx context.Context) (float64, float64, error) {
		return b.eng.combine(ctx, []term{{o: o, weight: 1}})
	})
}

// Delta 现价中心差分.
func (b *base) Delta(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpDelta, o, b.greeks.delta)
}

// Gamma 两个扰动现价处 delta 的差分.
func (b *base) Gamma(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpGamma, o, b.greeks.gamma)
}

// Vega 每 1% 波动率的价格变化.
func (b *base) Vega(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpVega, o, b.greeks.vega)
}

// Theta 每日时间价值.
func (b *base) Theta(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpTheta, o, b.greeks.theta)
}

// Rho 每个基点利率的价格变化.
func (b *base) Rho(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpRho, o, b.greeks.rho)
}

// Rho2 每个基点分红率的价格变化，期货标的恒为 0.
func (b *base) Rho2(ctx context.Context, o option.Option) Result {
	return b.greek(ctx, OpRho2, o, b.greeks.rho2)
}

// ImpliedVol 默认不支持，解析计算器覆盖.
func (b *base) ImpliedVol(ctx context.Context, o option.Option) Result {
	return b.run(ctx, OpImpliedVol, o, func(context.Context) (float64, float64, error) {
		return 0, 0, xerrors.ErrUnsupported.With(nil, "%s calculator has no implied volatility", b.name)
	})
}

func kindOf(o option.Option) string {
	if o == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", o)
}
