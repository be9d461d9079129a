// Package bootstrap 组装定价运行时：配置、日志、指标、追踪、蒙特卡洛工作池以及三种计算器.
package bootstrap

import (
	"context"
	"errors"
	"flag"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wyfcoding/quant/calculator"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/tracing"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

// Runtime 持有进程级的定价依赖. 计算器之间共享同一个工作池与指标注册表.
type Runtime struct {
	Config  config.Config
	Logger  *logging.Logger
	Metrics *metrics.Metrics
	Pool    *worker.Pool

	Analytic         *calculator.Analytic
	FiniteDifference *calculator.FiniteDifference
	MonteCarlo       *calculator.MonteCarlo

	tracer      *sdktrace.TracerProvider
	stopMetrics func()
}

// ParseFlags 解析命令行中的 -config 参数，未指定时返回空串，即使用内置默认配置.
func ParseFlags(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "path to pricing config file (toml)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	return *path, nil
}

// New 加载配置文件并组装运行时. path 为空时使用 config.Default.
func New(service, path string, exporters ...sdktrace.SpanExporter) (*Runtime, error) {
	cfg := config.Default()
	if path != "" {
		if err := config.Load(path, &cfg); err != nil {
			return nil, err
		}
	}
	r, err := NewWithConfig(service, cfg, exporters...)
	if err != nil {
		return nil, err
	}
	if path != "" {
		config.RegisterReloadHook(r.onReload)
	}
	return r, nil
}

// NewWithConfig 以给定配置组装运行时，调用方负责 Close.
func NewWithConfig(service string, cfg config.Config, exporters ...sdktrace.SpanExporter) (*Runtime, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}

	logging.InitLogger(cfg.LoggingConfig(service))
	logger := logging.NewFromConfig(cfg.LoggingConfig(service))

	tp, err := tracing.Init(cfg.Tracing, exporters...)
	if err != nil {
		return nil, err
	}

	m := metrics.NewMetrics(service)
	m.RegisterBuildInfo(service, cfg.Version)

	r := &Runtime{
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		tracer:      tp,
		stopMetrics: func() {},
	}
	if cfg.Metrics.Enabled {
		r.stopMetrics = m.ExposeHttp(cfg.Metrics.Port)
	}

	pricing := cfg.Pricing.Normalized()
	r.Pool = calculator.NewPool(pricing.Worker, m, logger.Named("worker"))

	opts := []calculator.Option{
		calculator.WithMetrics(m),
		calculator.WithLogger(logger.Named("calculator")),
	}
	r.Analytic = calculator.NewAnalytic(pricing, opts...)
	r.FiniteDifference = calculator.NewFiniteDifference(pricing, opts...)
	r.MonteCarlo = calculator.NewMonteCarlo(pricing, r.Pool, opts...)

	logger.Info("pricing runtime started",
		"version", cfg.Version,
		"workers", pricing.Worker.Size,
		"tracing", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled)
	return r, nil
}

// Calculator 按名称返回计算器.
func (r *Runtime) Calculator(name string) (calculator.Calculator, error) {
	switch name {
	case r.Analytic.Name():
		return r.Analytic, nil
	case r.FiniteDifference.Name():
		return r.FiniteDifference, nil
	case r.MonteCarlo.Name():
		return r.MonteCarlo, nil
	}
	return nil, xerrors.ErrMethodNotFound.With(nil, "unknown calculator %q", name)
}

// onReload 计算器参数不可变，热更新只记录差异，新参数在重启后生效.
func (r *Runtime) onReload(next *config.Config) {
	if next.Pricing != r.Config.Pricing {
		r.Logger.Warn("pricing config changed on disk, restart to apply", "version", next.Version)
	}
}

// Close 停止工作池、指标服务与追踪导出.
func (r *Runtime) Close(ctx context.Context) error {
	r.Pool.Stop()
	r.stopMetrics()
	var err error
	if r.tracer != nil {
		err = errors.Join(r.tracer.ForceFlush(ctx), r.tracer.Shutdown(ctx))
	}
	r.Logger.Info("pricing runtime stopped")
	return err
}
