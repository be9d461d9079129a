// Package retry 提供带抖动的指数退避重试，用于可能短暂失败的外部依赖.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/wyfcoding/quant/config"
)

// Policy 重试策略. Attempts 为首次调用失败后的最大重试次数.
type Policy struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64 // 退避时间的相对抖动幅度
}

// DefaultPolicy 重试 3 次，退避从 100ms 翻倍至 2s.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2,
		Jitter:     0.1,
	}
}

// PolicyFromConfig 由行情源配置构造重试策略，未设置的字段取默认值.
func PolicyFromConfig(cfg config.HistoryConfig) Policy {
	p := DefaultPolicy()
	p.Attempts = cfg.Retries
	if cfg.Backoff > 0 {
		p.Initial = cfg.Backoff
		p.Max = max(p.Max, cfg.Backoff)
	}
	return p
}

// Do 执行 fn，失败且 retryable 返回 true 时按策略退避重试. retryable 为 nil 时所有错误均重试.
// 返回最后一次调用的错误，上下文取消时返回上下文错误.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	backoff := p.Initial
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.Attempts || (retryable != nil && !retryable(err)) {
			return err
		}

		timer := time.NewTimer(p.jittered(backoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = p.next(backoff)
	}
}

func (p Policy) jittered(d time.Duration) time.Duration {
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	return time.Duration(float64(d) * (1 + (rand.Float64()*2-1)*p.Jitter))
}

func (p Policy) next(d time.Duration) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	next := time.Duration(float64(d) * mult)
	if p.Max > 0 && next > p.Max {
		return p.Max
	}
	return next
}
