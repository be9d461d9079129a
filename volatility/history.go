package volatility

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/stat"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/retry"
	"github.com/wyfcoding/quant/xerrors"
)

// PriceProvider 外部历史行情源，返回 [from, to] 区间内按时间升序的收盘价.
// 返回空切片视为数据不可用.
type PriceProvider interface {
	Closes(ctx context.Context, symbol string, from, to time.Time) ([]float64, error)
}

// GuardedProvider 为外部行情源叠加限流、熔断、退避重试与同键请求合并.
type GuardedProvider struct {
	next    PriceProvider
	retry   retry.Policy
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
}

// NewGuardedProvider 按配置包装行情源.
func NewGuardedProvider(next PriceProvider, cfg config.HistoryConfig, logger *slog.Logger) *GuardedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	st := gobreaker.Settings{
		Name:    "history-provider",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("history provider breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	return &GuardedProvider{
		next:    next,
		retry:   retry.PolicyFromConfig(cfg),
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		breaker: gobreaker.NewCircuitBreaker(st),
		logger:  logger,
	}
}

// Closes 实现 PriceProvider. 熔断打开、限流等待被取消或返回空数据时，错误可被 errors.Is(xerrors.ErrProviderUnavailable) 识别.
func (g *GuardedProvider) Closes(ctx context.Context, symbol string, from, to time.Time) ([]float64, error) {
	key := fmt.Sprintf("%s|%d|%d", symbol, from.Unix(), to.Unix())
	v, err, shared := g.group.Do(key, func() (any, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, xerrors.ErrProviderUnavailable.With(err, "rate limit wait for %s", symbol)
		}
		return g.breaker.Execute(func() (any, error) {
			var closes []float64
			err := g.retry.Do(ctx, func(ctx context.Context) error {
				var err error
				closes, err = g.next.Closes(ctx, symbol, from, to)
				if err == nil && len(closes) == 0 {
					err = xerrors.ErrProviderUnavailable.With(nil, "no prices for %s", symbol)
				}
				return err
			}, transient)
			if err != nil {
				return nil, err
			}
			return closes, nil
		})
	})
	if err != nil {
		if _, ok := xerrors.FromError(err); !ok {
			err = xerrors.ErrProviderUnavailable.With(err, "history provider for %s", symbol)
		}
		g.logger.WarnContext(ctx, "history provider failed", "symbol", symbol, "shared", shared, "error", err)
		return nil, err
	}
	return v.([]float64), nil
}

// transient 空数据与上下文取消不重试.
func transient(err error) bool {
	return !errors.Is(err, xerrors.ErrProviderUnavailable) &&
		!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Historical 基于收盘价序列的波动率估计.
type Historical struct {
	Closes      []float64
	TradingDays float64 // 年化系数，默认 252
}

// LoadHistorical 通过行情源加载收盘价.
func LoadHistorical(ctx context.Context, p PriceProvider, symbol string, from, to time.Time, tradingDays float64) (*Historical, error) {
	closes, err := p.Closes(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(closes) < 3 {
		return nil, xerrors.ErrEmptyData.With(nil, "need at least 3 closes for %s, got %d", symbol, len(closes))
	}
	return &Historical{Closes: closes, TradingDays: tradingDays}, nil
}

func (h *Historical) tradingDays() float64 {
	if h.TradingDays <= 0 {
		return 252
	}
	return h.TradingDays
}

// CloseVolatility 收盘价对数收益率的年化标准差.
func (h *Historical) CloseVolatility() float64 {
	return algomath.AnnualizedVol(h.Closes, h.tradingDays())
}

// RollingVolatility 以 width 为窗口的滚动年化波动率序列.
func (h *Historical) RollingVolatility(width int) []float64 {
	if width < 3 || width > len(h.Closes) {
		return nil
	}
	out := make([]float64, len(h.Closes)-width+1)
	for i := range out {
		out[i] = algomath.AnnualizedVol(h.Closes[i:i+width], h.tradingDays())
	}
	return out
}

// GarchVolatility 以 GARCH(1,1) 拟合收盘价，返回 days 个交易日后的年化波动率预测.
// spotVol 为当前年化波动率估计，长期方差取样本方差.
func (h *Historical) GarchVolatility(spotVol, days float64) (float64, error) {
	r := algomath.LogReturns(h.Closes)
	if len(r) < 3 {
		return math.NaN(), xerrors.ErrEmptyData.With(nil, "garch needs at least 4 closes")
	}
	longVar := stat.Variance(r, nil)

	loglik := func(p []float64) float64 {
		alpha, beta := p[0], p[1]
		if alpha <= 0 || beta <= 0 || alpha+beta >= 1 {
			return math.Inf(-1)
		}
		omega := longVar * (1 - alpha - beta)
		v := r[0] * r[0]
		var sum float64
		for i := 1; i < len(r); i++ {
			if v <= 0 {
				return math.Inf(-1)
			}
			sum += -math.Log(v) - r[i]*r[i]/v
			v = omega + beta*v + alpha*r[i]*r[i]
		}
		return sum
	}

	res, err := algomath.NelderMead(loglik, []float64{0.06, 0.9}, []float64{0.01, 0.01}, true)
	if err != nil && res.X == nil {
		return math.NaN(), err
	}
	persistence := res.X[0] + res.X[1]
	daily := spotVol * spotVol / h.tradingDays()
	forecast := longVar + math.Pow(persistence, days)*(daily-longVar)
	return math.Sqrt(forecast * h.tradingDays()), nil
}
