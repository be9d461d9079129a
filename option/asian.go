package option

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/xerrors"
)

// DefaultTradingDays 每年交易日数.
const DefaultTradingDays = 252

// Asian 算术平均亚式期权. bsm 为 Turnbull-Wakeman 近似，curran 为 Curran 近似.
type Asian struct {
	contract    Contract
	Params      finance.Asian
	TradingDays float64
}

// NewAsian 创建亚式期权，tradingDays 非正时取 252.
func NewAsian(c Contract, p finance.Asian, tradingDays float64) *Asian {
	if tradingDays <= 0 {
		tradingDays = DefaultTradingDays
	}
	return &Asian{contract: c, Params: p, TradingDays: tradingDays}
}

func (o *Asian) Contract() Contract { return o.contract }

func (o *Asian) WithContract(c Contract) Option {
	return &Asian{contract: c, Params: o.Params, TradingDays: o.TradingDays}
}

func (o *Asian) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(o.Params); err != nil {
		return xerrors.ErrInvalidOption.With(err, "asian averaging")
	}
	for _, t := range o.Params.Observations {
		if t <= 0 || t > o.contract.Vanilla.Maturity {
			return xerrors.ErrInvalidOption.With(nil, "observation %g outside (0, %g]", t, o.contract.Vanilla.Maturity)
		}
	}
	return nil
}

// volLookup 曲面有效时按曲面查询观察点波动率.
func (o *Asian) volLookup() finance.VolLookup {
	c := o.contract
	if !c.HasSurface() {
		return nil
	}
	return c.Surface.Vol
}

func (o *Asian) Methods() MethodTable {
	in := o.contract.Inputs()
	vol := o.volLookup()
	return MethodTable{
		MethodBSM: plain(func() float64 {
			return finance.AsianTurnbullWakeman(in, o.Params, vol, o.TradingDays)
		}),
		MethodCurran: func() (float64, error) {
			return finance.AsianCurran(in, o.Params, vol, o.TradingDays)
		},
	}
}

// PathPayoff 路径在观察点上的价格由分段线性插值得到.
func (o *Asian) PathPayoff(path []float64) float64 {
	c := o.contract
	t := c.Vanilla.Maturity
	var pl interp.PiecewiseLinear
	if err := pl.Fit(TimePoints(t, len(path)), path); err != nil {
		return math.NaN()
	}
	obs := o.Params.ObservationTimes(t, o.TradingDays)
	prices := make([]float64, len(obs))
	for i, x := range obs {
		prices[i] = pl.Predict(x)
	}
	return finance.AsianPayoff(c.Inputs(), o.Params, stat.Mean(prices, nil))
}

// AutocallTerms 雪球结构条款. 价格以参考价 RefPrice 归一，收益按名义本金 1 计.
// ObserveDays 为敲出观察日 (交易日序号)，未敲出的观察日敲出价下调 RefPrice·Decay.
type AutocallTerms struct {
	KnockIn      float64 `json:"knock_in"      validate:"gt=0"`
	KnockOut     float64 `json:"knock_out"     validate:"gtfield=KnockIn"`
	Coupon       float64 `json:"coupon"        validate:"gte=0"`
	ObserveDays  []int   `json:"observe_days"  validate:"min=1,dive,gt=0"`
	RefPrice     float64 `json:"ref_price"     validate:"gt=0"`
	Decay        float64 `json:"decay"         validate:"gte=0"`
	Floor        float64 `json:"floor"         validate:"gte=0,lte=1"`
	DiscountRate float64 `json:"discount_rate"`
	Refund       float64 `json:"refund"        validate:"gte=0"`
	TradingDays  int     `json:"trading_days"  validate:"gt=0"`
}

// Autocall 雪球期权，只能用蒙特卡洛定价.
type Autocall struct {
	contract Contract
	Terms    AutocallTerms
}

// NewAutocall 创建雪球期权.
func NewAutocall(c Contract, terms AutocallTerms) *Autocall {
	return &Autocall{contract: c, Terms: terms}
}

func (o *Autocall) Contract() Contract { return o.contract }

func (o *Autocall) WithContract(c Contract) Option {
	return &Autocall{contract: c, Terms: o.Terms}
}

func (o *Autocall) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(o.Terms); err != nil {
		return xerrors.ErrInvalidOption.With(err, "autocall terms")
	}
	return nil
}

// Methods 没有解析方法.
func (o *Autocall) Methods() MethodTable { return MethodTable{} }

// isObserveDay t 与某个观察日的距离小于一个交易日.
func (o *Autocall) isObserveDay(t float64) bool {
	td := float64(o.Terms.TradingDays)
	for _, d := range o.Terms.ObserveDays {
		if math.Abs(t-float64(d)/td) < 1/td {
			return true
		}
	}
	return false
}

// PathPayoff 敲出时按持有期支付票息；未敲出未敲入时按全期支付票息；
// 敲入未敲出时承担 max(Floor-1, min(0, S_T/Ref-1)) 的损失. 结果扣除返息后按 DiscountRate 贴现.
func (o *Autocall) PathPayoff(path []float64) float64 {
	terms := o.Terms
	td := float64(terms.TradingDays)
	times := TimePoints(o.contract.Vanilla.Maturity, len(path))
	barrier := terms.KnockOut
	knockedIn, knockedOut := false, false
	var paidDays float64

	for i, s := range path {
		if s < terms.KnockIn {
			knockedIn = true
		}
		if !o.isObserveDay(times[i]) {
			continue
		}
		if s > barrier {
			paidDays = times[i] * td
			knockedOut = true
			break
		}
		barrier -= terms.RefPrice * terms.Decay
	}

	var payoff float64
	switch {
	case knockedOut:
		payoff = terms.Coupon * paidDays / td
	case !knockedIn:
		paidDays = float64(terms.ObserveDays[len(terms.ObserveDays)-1])
		payoff = terms.Coupon * paidDays / td
	default:
		paidDays = float64(terms.ObserveDays[len(terms.ObserveDays)-1])
		payoff = math.Max(terms.Floor-1, math.Min(0, path[len(path)-1]/terms.RefPrice-1))
	}
	payoff -= terms.Refund * paidDays / td
	return payoff * math.Exp(-terms.DiscountRate*paidDays/td)
}
