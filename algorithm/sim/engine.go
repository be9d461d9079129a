package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

// Sampler 在一条路径的正态增量上给出一个样本，例如贴现收益或两份合约收益之差.
type Sampler func(z []float64) float64

// Estimate 样本均值及其误差.
type Estimate struct {
	Value  float64
	StdErr float64
	Error  float64 // StdErr·ErrorMultiplier
	Paths  int
}

// Engine 蒙特卡洛引擎. 不持有池的所有权，可被多个计算器共享.
type Engine struct {
	pool   *worker.Pool
	params Params
}

// NewEngine 创建使用 pool 的引擎.
func NewEngine(pool *worker.Pool, p Params) *Engine {
	return &Engine{pool: pool, params: p.Normalized()}
}

// Params 返回归一化后的参数.
func (e *Engine) Params() Params { return e.params }

// batch 一个批次的累积量.
type batch struct {
	sum, sumSq float64
	n          int
	done       bool
	err        error
}

// Run 将路径按批次提交到池中，汇总 sampler 的均值与标准误差.
// 队列已满时返回 ErrPoolFull，已提交的批次仍会等待完成.
func (e *Engine) Run(ctx context.Context, sampler Sampler) (Estimate, error) {
	if e.pool == nil {
		return Estimate{}, xerrors.ErrInvalidInput.With(nil, "monte carlo engine has no worker pool")
	}
	sizes := e.params.batchSizes()
	results := make([]batch, len(sizes))
	seed := e.seed()

	var wg sync.WaitGroup
	var submitErr error
	for i, size := range sizes {
		wg.Add(1)
		slot := &results[i]
		src := rand.NewSource(seed + uint64(i)*0x9E3779B97F4A7C15)
		err := e.pool.TrySubmit(func(poolCtx context.Context) {
			defer wg.Done()
			if poolCtx.Err() != nil {
				slot.err = worker.ErrPoolClosed
				return
			}
			if err := ctx.Err(); err != nil {
				slot.err = err
				return
			}
			e.runBatch(slot, size, src, sampler)
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return Estimate{}, submitErr
	}
	return e.combine(results)
}

func (e *Engine) runBatch(slot *batch, size int, src rand.Source, sampler Sampler) {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	row := make([]float64, e.params.Nodes)
	for range size {
		for j := range row {
			row[j] = normal.Rand()
		}
		v := sampler(row)
		slot.sum += v
		slot.sumSq += v * v
	}
	slot.n = size
	slot.done = true
}

func (e *Engine) combine(results []batch) (Estimate, error) {
	var sum, sumSq float64
	var n int
	for i, b := range results {
		if b.err != nil {
			return Estimate{}, b.err
		}
		if !b.done {
			return Estimate{}, xerrors.ErrCalculation.With(nil, "monte carlo batch %d did not finish", i)
		}
		sum += b.sum
		sumSq += b.sumSq
		n += b.n
	}
	fn := float64(n)
	mean := sum / fn
	var stderr float64
	if n > 1 {
		variance := math.Max((sumSq-fn*mean*mean)/(fn-1), 0)
		stderr = math.Sqrt(variance / fn)
	}
	return Estimate{Value: mean, StdErr: stderr, Error: stderr * e.params.ErrorMultiplier, Paths: n}, nil
}

func (e *Engine) seed() uint64 {
	if e.params.Seed != 0 {
		return uint64(e.params.Seed)
	}
	return uint64(time.Now().UnixNano())
}

// PayoffSampler 在路径上求 o 的贴现收益.
func (e *Engine) PayoffSampler(o option.MonteCarloPricer) Sampler {
	c := o.Contract()
	local := e.params.LocalVol
	return func(z []float64) float64 {
		return o.PathPayoff(Path(c, z, local, nil))
	}
}

// Price 期权价格的蒙特卡洛估计.
func (e *Engine) Price(ctx context.Context, o option.MonteCarloPricer) (Estimate, error) {
	return e.Run(ctx, e.PayoffSampler(o))
}

// Difference 同一随机数上 (upper - lower)/denominator 的估计.
func (e *Engine) Difference(ctx context.Context, lower, upper option.MonteCarloPricer, denominator float64) (Estimate, error) {
	return e.Run(ctx, DifferenceSampler(e.PayoffSampler(lower), e.PayoffSampler(upper), denominator))
}

// DifferenceSampler 组合两个 sampler 的有限差分，可嵌套得到二阶差分.
func DifferenceSampler(lower, upper Sampler, denominator float64) Sampler {
	return func(z []float64) float64 {
		return (upper(z) - lower(z)) / denominator
	}
}
