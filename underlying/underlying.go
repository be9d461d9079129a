// Package underlying 定义服从几何布朗运动的标的资产：现货、期货与外汇.
package underlying

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/wyfcoding/quant/xerrors"
)

// Kind 标的类型.
type Kind int

const (
	// Spot 现货或指数，r 与 q 相互独立.
	Spot Kind = iota
	// Future 期货，持有成本为零，q 恒等于 r.
	Future
	// Currency 外汇，r 为本币利率，q 为外币利率.
	Currency
)

func (k Kind) String() string {
	switch k {
	case Future:
		return "future"
	case Currency:
		return "currency"
	default:
		return "spot"
	}
}

// Underlying 标的资产，值类型，修改均返回新值.
type Underlying struct {
	Kind         Kind
	SpotPrice    float64 `validate:"gt=0"`
	RiskFreeRate float64
	DividendRate float64
}

var validate = validator.New()

// NewSpot 创建现货标的.
func NewSpot(spot, rate, dividend float64) Underlying {
	return Underlying{Kind: Spot, SpotPrice: spot, RiskFreeRate: rate, DividendRate: dividend}
}

// NewFuture 创建期货标的.
func NewFuture(spot, rate float64) Underlying {
	return Underlying{Kind: Future, SpotPrice: spot, RiskFreeRate: rate, DividendRate: rate}
}

// NewCurrency 创建外汇标的.
func NewCurrency(spot, domestic, foreign float64) Underlying {
	return Underlying{Kind: Currency, SpotPrice: spot, RiskFreeRate: domestic, DividendRate: foreign}
}

// Validate 校验标的参数.
func (u Underlying) Validate() error {
	if err := validate.Struct(u); err != nil {
		return xerrors.ErrInvalidOption.With(err, "underlying %s", u)
	}
	if math.IsNaN(u.RiskFreeRate) || math.IsNaN(u.DividendRate) {
		return xerrors.ErrInvalidOption.With(nil, "underlying rates must not be NaN")
	}
	return nil
}

// Dividend 分红率，期货恒等于无风险利率.
func (u Underlying) Dividend() float64 {
	if u.Kind == Future {
		return u.RiskFreeRate
	}
	return u.DividendRate
}

// CostOfCarry 持有成本 b = r - q.
func (u Underlying) CostOfCarry() float64 {
	return u.RiskFreeRate - u.Dividend()
}

// FutureValue 远期价格 S·e^{bt}.
func (u Underlying) FutureValue(t float64) float64 {
	return u.SpotPrice * math.Exp(u.CostOfCarry()*t)
}

// PresentValue S·e^{-bt}.
func (u Underlying) PresentValue(t float64) float64 {
	return u.SpotPrice * math.Exp(-u.CostOfCarry()*t)
}

// WithSpot 返回替换现价后的标的.
func (u Underlying) WithSpot(s float64) Underlying {
	u.SpotPrice = s
	return u
}

// WithRate 返回替换无风险利率后的标的，期货的分红率随之变化.
func (u Underlying) WithRate(r float64) Underlying {
	u.RiskFreeRate = r
	if u.Kind == Future {
		u.DividendRate = r
	}
	return u
}

// WithDividend 返回替换分红率后的标的，对期货无效.
func (u Underlying) WithDividend(q float64) Underlying {
	if u.Kind == Future {
		return u
	}
	u.DividendRate = q
	return u
}

// SwapRates 交换 r 与 q，用于看涨看跌变换.
func (u Underlying) SwapRates() Underlying {
	r, q := u.RiskFreeRate, u.Dividend()
	return u.WithRate(q).WithDividend(r)
}

// Reverse 外汇反向报价：1/S，本外币利率互换.
func (u Underlying) Reverse() Underlying {
	return Underlying{
		Kind:         u.Kind,
		SpotPrice:    1 / u.SpotPrice,
		RiskFreeRate: u.Dividend(),
		DividendRate: u.RiskFreeRate,
	}
}

func (u Underlying) String() string {
	return fmt.Sprintf("%s{spot=%g, r=%g, q=%g}", u.Kind, u.SpotPrice, u.RiskFreeRate, u.Dividend())
}
