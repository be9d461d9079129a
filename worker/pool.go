// Package worker 提供进程级的有界 worker 池，队列满时拒绝提交而不是阻塞调用方.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wyfcoding/quant/async"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/xerrors"
)

var (
	ErrPoolClosed = errors.New("worker pool is closed")
	ErrPoolFull   = xerrors.ErrPoolFull
)

// Task worker 执行的任务. 池停止后仍在队列中的任务会以已取消的 ctx 调用一次，
// 任务应检查 ctx 并尽快返回，这样等待它的调用方不会被挂起.
type Task func(ctx context.Context)

// Pool 有界 worker 池，可在多个计算请求之间共享.
type Pool struct {
	cfg     poolConfig
	tasks   chan Task
	quit    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	gauges  *poolMetrics
	wg      sync.WaitGroup
	mu      sync.RWMutex // 提交持读锁，Stop 持写锁确认在途提交已结束
	closed  atomic.Bool
	running atomic.Int32
}

type poolMetrics struct {
	active   prometheus.Gauge
	queued   prometheus.Gauge
	rejected prometheus.Counter
}

type poolConfig struct {
	name      string
	size      int
	queueSize int
	logger    *slog.Logger
	onPanic   func(any)
	metrics   *metrics.Metrics
}

// Option 池配置选项.
type Option func(*poolConfig)

// WithName 池名称，同时作为指标的 pool 标签.
func WithName(name string) Option {
	return func(c *poolConfig) { c.name = name }
}

// WithSize worker 数量.
func WithSize(size int) Option {
	return func(c *poolConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithQueueSize 等待队列长度.
func WithQueueSize(size int) Option {
	return func(c *poolConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithPanicHandler 任务 panic 时的回调，默认记录错误日志.
func WithPanicHandler(handler func(any)) Option {
	return func(c *poolConfig) { c.onPanic = handler }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *poolConfig) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *poolConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewPool 创建池并立即启动全部 worker.
func NewPool(opts ...Option) *Pool {
	cfg := poolConfig{name: "default-pool", size: 10, queueSize: 100, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		cfg:    cfg,
		tasks:  make(chan Task, cfg.queueSize),
		quit:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		gauges: newPoolMetrics(cfg.metrics, cfg.name),
	}

	cfg.logger.Info("worker pool starting", "name", cfg.name, "size", cfg.size, "queue", cfg.queueSize)
	p.wg.Add(cfg.size)
	for range cfg.size {
		async.SafeGo(p.loop)
	}
	return p
}

func newPoolMetrics(m *metrics.Metrics, name string) *poolMetrics {
	if m == nil {
		return nil
	}
	labels := prometheus.Labels{"pool": name}
	return &poolMetrics{
		active: m.NewGauge(prometheus.GaugeOpts{
			Name:        "worker_pool_active_workers",
			Help:        "Number of workers currently executing a task",
			ConstLabels: labels,
		}),
		queued: m.NewGauge(prometheus.GaugeOpts{
			Name:        "worker_pool_queue_length",
			Help:        "Current length of the task queue",
			ConstLabels: labels,
		}),
		rejected: m.NewCounterVec(prometheus.CounterOpts{
			Name:        "worker_pool_rejected_total",
			Help:        "Tasks rejected because the queue was full",
			ConstLabels: labels,
		}, nil).WithLabelValues(),
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for {
		// quit 优先，停止后剩余任务统一由 Stop 以已取消的 ctx 处理
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			p.observeQueue()
			p.execute(task)
		}
	}
}

func (p *Pool) observeQueue() {
	if p.gauges != nil {
		p.gauges.queued.Set(float64(len(p.tasks)))
	}
}

func (p *Pool) execute(task Task) {
	p.running.Add(1)
	if p.gauges != nil {
		p.gauges.active.Inc()
	}
	defer func() {
		p.running.Add(-1)
		if p.gauges != nil {
			p.gauges.active.Dec()
		}
		if r := recover(); r != nil {
			if p.cfg.onPanic != nil {
				p.cfg.onPanic(r)
				return
			}
			p.cfg.logger.Error("worker task panic recovered", "pool", p.cfg.name, "error", async.PanicError(r))
		}
	}()
	task(p.ctx)
}

// Submit 阻塞直到任务入队、ctx 结束或池被关闭.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		p.observeQueue()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.quit:
		return ErrPoolClosed
	}
}

// TrySubmit 队列已满时立即返回 ErrPoolFull.
func (p *Pool) TrySubmit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case p.tasks <- task:
		p.observeQueue()
		return nil
	default:
		if p.gauges != nil {
			p.gauges.rejected.Inc()
		}
		return ErrPoolFull.With(nil, "pool %s queue size %d", p.cfg.name, p.cfg.queueSize)
	}
}

// Active 正在执行任务的 worker 数.
func (p *Pool) Active() int { return int(p.running.Load()) }

// Done 池停止后关闭.
func (p *Pool) Done() <-chan struct{} { return p.quit }

func (p *Pool) Size() int { return p.cfg.size }

// Stop 等待正在执行的任务结束，再以已取消的 ctx 逐个调用队列中剩余的任务. 可重复调用.
func (p *Pool) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.quit)
	p.mu.Lock()
	p.mu.Unlock() //nolint:staticcheck // 等待在途提交
	p.wg.Wait()
	p.cancel()

	drained := 0
	for {
		select {
		case task := <-p.tasks:
			drained++
			p.execute(task)
		default:
			p.observeQueue()
			p.cfg.logger.Info("worker pool stopped", "name", p.cfg.name, "cancelled", drained)
			return
		}
	}
}
