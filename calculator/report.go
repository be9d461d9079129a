package calculator

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/quant/async"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/logging"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/worker"
)

// NewPool 按配置创建进程级的蒙特卡洛工作池，由调用方负责 Stop.
func NewPool(cfg config.WorkerConfig, m *metrics.Metrics, l *logging.Logger) *worker.Pool {
	opts := []worker.Option{
		worker.WithName("pricing"),
		worker.WithSize(cfg.Size),
		worker.WithQueueSize(cfg.QueueSize),
		worker.WithMetrics(m),
	}
	if l != nil {
		opts = append(opts, worker.WithLogger(l.Logger))
	}
	return worker.NewPool(opts...)
}

// Report 一份期权的价格与全部希腊值.
type Report struct {
	Price Result
	Delta Result
	Gamma Result
	Vega  Result
	Theta Result
	Rho   Result
	Rho2  Result
}

// NewReport 并发计算价格与各希腊值. 单项失败记录在对应 Result 中，返回的错误只来自任务 panic.
// 蒙特卡洛计算器的各项依次执行，每次只占用一轮批次的队列容量，避免在共享池上互相挤占.
func NewReport(ctx context.Context, calc Calculator, o option.Option) (Report, error) {
	var r Report
	jobs := []struct {
		dst *Result
		fn  func(context.Context, option.Option) Result
	}{
		{&r.Price, calc.Price},
		{&r.Delta, calc.Delta},
		{&r.Gamma, calc.Gamma},
		{&r.Vega, calc.Vega},
		{&r.Theta, calc.Theta},
		{&r.Rho, calc.Rho},
		{&r.Rho2, calc.Rho2},
	}
	var g async.RunGroup
	if _, ok := calc.(*MonteCarlo); ok {
		g.SetLimit(1)
	}
	for _, job := range jobs {
		g.Go(func() error {
			*job.dst = job.fn(ctx, o)
			return nil
		})
	}
	err := g.Wait()
	return r, err
}

// Results 以操作名索引的结果.
func (r Report) Results() map[string]Result {
	return map[string]Result{
		OpPrice: r.Price,
		OpDelta: r.Delta,
		OpGamma: r.Gamma,
		OpVega:  r.Vega,
		OpTheta: r.Theta,
		OpRho:   r.Rho,
		OpRho2:  r.Rho2,
	}
}

// Quote 对外展示的十进制报价，未能计算的项记入 Missing.
type Quote struct {
	Price   decimal.Decimal            `json:"price"`
	Greeks  map[string]decimal.Decimal `json:"greeks"`
	Missing map[string]string          `json:"missing,omitempty"`
}

// Quote 按 places 位小数四舍五入.
func (r Report) Quote(places int32) Quote {
	q := Quote{Greeks: make(map[string]decimal.Decimal, 6)}
	for op, res := range r.Results() {
		d, ok := res.Decimal(places)
		if !ok {
			if q.Missing == nil {
				q.Missing = make(map[string]string)
			}
			q.Missing[op] = res.Status.String()
			continue
		}
		if op == OpPrice {
			q.Price = d
			continue
		}
		q.Greeks[op] = d
	}
	return q
}

// Decimal 将正常结果四舍五入为 places 位小数.
func (r Result) Decimal(places int32) (decimal.Decimal, bool) {
	if r.Status != Normal || math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(r.Value).Round(places), true
}
