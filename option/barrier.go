package option

import (
	"math"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/volatility"
	"github.com/wyfcoding/quant/xerrors"
)

func validateBarrier(level float64, bt types.BarrierType, dir types.BarrierDirection) error {
	if level <= 0 || math.IsNaN(level) {
		return xerrors.ErrInvalidOption.With(nil, "barrier level %g must be positive", level)
	}
	if !bt.Valid() || !dir.Valid() {
		return xerrors.ErrInvalidOption.With(nil, "barrier type %q direction %q", bt, dir)
	}
	return nil
}

// hitIndex 路径首次触碰障碍的下标，未触碰时返回 -1.
func hitIndex(path []float64, touched func(i int, s float64) bool) int {
	for i, s := range path {
		if touched(i, s) {
			return i
		}
	}
	return -1
}

// Barrier 单障碍期权.
type Barrier struct {
	contract Contract
	Params   finance.Barrier
}

// NewBarrier 创建单障碍期权.
func NewBarrier(c Contract, p finance.Barrier) *Barrier {
	return &Barrier{contract: c, Params: p}
}

func (o *Barrier) Contract() Contract { return o.contract }

func (o *Barrier) WithContract(c Contract) Option {
	return &Barrier{contract: c, Params: o.Params}
}

func (o *Barrier) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if o.Params.Rebate < 0 {
		return xerrors.ErrInvalidOption.With(nil, "rebate %g", o.Params.Rebate)
	}
	return validateBarrier(o.Params.Level, o.Params.Type, o.Params.Direction)
}

// params 曲面有效时障碍价处的波动率取 (H/S, T) 的曲面值.
func (o *Barrier) params() finance.Barrier {
	p := o.Params
	c := o.contract
	if p.VolAtBarrier <= 0 && c.HasSurface() {
		p.VolAtBarrier = c.Surface.Vol(volatility.Moneyness(p.Level, c.Underlying.SpotPrice), c.Vanilla.Maturity)
	}
	return p
}

func (o *Barrier) Methods() MethodTable {
	in := o.contract.Inputs()
	p := o.params()
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.BarrierPrice(in, p) }),
	}
}

// PathPayoff 敲入未触碰时到期支付回扣，敲出在触碰时刻支付回扣.
func (o *Barrier) PathPayoff(path []float64) float64 {
	c := o.contract
	hit := hitIndex(path, func(_ int, s float64) bool { return o.Params.Touched(s) })
	if o.Params.Type.IsIn() {
		if hit < 0 {
			return o.Params.Rebate * c.DiscountRate()
		}
		return vanillaPayoff(c, path[len(path)-1]) * c.DiscountRate()
	}
	if hit >= 0 {
		t := TimePoints(c.Vanilla.Maturity, len(path))[hit]
		return o.Params.Rebate * math.Exp(-c.Underlying.RiskFreeRate*t)
	}
	return vanillaPayoff(c, path[len(path)-1]) * c.DiscountRate()
}

// BinaryBarrier 二元障碍期权，触碰即付或到期支付固定现金.
type BinaryBarrier struct {
	contract Contract
	Params   finance.BinaryBarrier
}

// NewBinaryBarrier 创建二元障碍期权.
func NewBinaryBarrier(c Contract, p finance.BinaryBarrier) *BinaryBarrier {
	return &BinaryBarrier{contract: c, Params: p}
}

func (o *BinaryBarrier) Contract() Contract { return o.contract }

func (o *BinaryBarrier) WithContract(c Contract) Option {
	return &BinaryBarrier{contract: c, Params: o.Params}
}

func (o *BinaryBarrier) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if o.Params.Cash <= 0 {
		return xerrors.ErrInvalidOption.With(nil, "cash %g must be positive", o.Params.Cash)
	}
	if !o.Params.Timing.Valid() {
		return xerrors.ErrInvalidOption.With(nil, "payoff timing %q", o.Params.Timing)
	}
	return validateBarrier(o.Params.Level, o.Params.Type, o.Params.Direction)
}

func (o *BinaryBarrier) Methods() MethodTable {
	in := o.contract.Inputs()
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.BinaryBarrierPrice(in, o.Params) }),
	}
}

func (o *BinaryBarrier) PathPayoff(path []float64) float64 {
	c := o.contract
	hit := hitIndex(path, func(_ int, s float64) bool { return o.Params.Touched(s) })
	if o.Params.Timing == types.PayAtHit {
		if hit < 0 {
			return 0
		}
		t := TimePoints(c.Vanilla.Maturity, len(path))[hit]
		return o.Params.Cash * math.Exp(-c.Underlying.RiskFreeRate*t)
	}
	if (hit >= 0) == o.Params.Type.IsIn() {
		return o.Params.Cash * c.DiscountRate()
	}
	return 0
}

// DoubleBarrier 双障碍期权，障碍可带指数曲率.
type DoubleBarrier struct {
	contract Contract
	Params   finance.DoubleBarrier
}

// NewDoubleBarrier 创建双障碍期权.
func NewDoubleBarrier(c Contract, p finance.DoubleBarrier) *DoubleBarrier {
	return &DoubleBarrier{contract: c, Params: p}
}

func (o *DoubleBarrier) Contract() Contract { return o.contract }

func (o *DoubleBarrier) WithContract(c Contract) Option {
	return &DoubleBarrier{contract: c, Params: o.Params}
}

func (o *DoubleBarrier) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	return validateDoubleBarrier(o.Params)
}

func validateDoubleBarrier(p finance.DoubleBarrier) error {
	if err := validate.Struct(p); err != nil {
		return xerrors.ErrInvalidOption.With(err, "double barrier")
	}
	if !p.Type.Valid() {
		return xerrors.ErrInvalidOption.With(nil, "barrier type %q", p.Type)
	}
	return nil
}

// withSeries 障碍参数未指定截断时使用合约的级数设置.
func withSeries(p finance.DoubleBarrier, s Series) finance.DoubleBarrier {
	if p.MaxIteration <= 0 {
		p.MaxIteration = s.MaxIteration
	}
	if p.Tolerance <= 0 {
		p.Tolerance = s.Tolerance
	}
	return p
}

func (o *DoubleBarrier) Methods() MethodTable {
	in := o.contract.Inputs()
	p := withSeries(o.Params, o.contract.Models.Series)
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.DoubleBarrierPrice(in, p) }),
	}
}

func (o *DoubleBarrier) touchedOnPath(path []float64) bool {
	times := TimePoints(o.contract.Vanilla.Maturity, len(path))
	return hitIndex(path, func(i int, s float64) bool { return o.Params.TouchedAt(s, times[i]) }) >= 0
}

func (o *DoubleBarrier) PathPayoff(path []float64) float64 {
	c := o.contract
	if o.touchedOnPath(path) != o.Params.Type.IsIn() {
		return 0
	}
	return vanillaPayoff(c, path[len(path)-1]) * c.DiscountRate()
}

// DoubleBinary 双障碍二元期权 (Hui 1996).
type DoubleBinary struct {
	contract Contract
	Params   finance.DoubleBarrier
	Cash     float64
	Timing   types.PayoffTiming
}

// NewDoubleBinary 创建双障碍二元期权.
func NewDoubleBinary(c Contract, p finance.DoubleBarrier, cash float64, timing types.PayoffTiming) *DoubleBinary {
	return &DoubleBinary{contract: c, Params: p, Cash: cash, Timing: timing}
}

func (o *DoubleBinary) Contract() Contract { return o.contract }

func (o *DoubleBinary) WithContract(c Contract) Option {
	return &DoubleBinary{contract: c, Params: o.Params, Cash: o.Cash, Timing: o.Timing}
}

func (o *DoubleBinary) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if o.Cash <= 0 {
		return xerrors.ErrInvalidOption.With(nil, "cash %g must be positive", o.Cash)
	}
	if !o.Timing.Valid() {
		return xerrors.ErrInvalidOption.With(nil, "payoff timing %q", o.Timing)
	}
	return validateDoubleBarrier(o.Params)
}

func (o *DoubleBinary) Methods() MethodTable {
	in := o.contract.Inputs()
	p := withSeries(o.Params, o.contract.Models.Series)
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.DoubleBinaryPrice(in, p, o.Cash, o.Timing) }),
	}
}

// PathPayoff 障碍不带曲率，与解析公式一致.
func (o *DoubleBinary) PathPayoff(path []float64) float64 {
	c := o.contract
	hit := hitIndex(path, func(_ int, s float64) bool { return o.Params.Touched(s) })
	if o.Timing == types.PayAtHit {
		if hit < 0 {
			return 0
		}
		t := TimePoints(c.Vanilla.Maturity, len(path))[hit]
		return o.Cash * math.Exp(-c.Underlying.RiskFreeRate*t)
	}
	if (hit >= 0) == o.Params.Type.IsIn() {
		return o.Cash * c.DiscountRate()
	}
	return 0
}
