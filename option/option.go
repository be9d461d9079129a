// Package option 定义期权合约与各类期权品种.
// 合约是不可变的值，希腊值扰动通过 WithContract 生成新的期权，不修改原值.
package option

import (
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/underlying"
	"github.com/wyfcoding/quant/volatility"
	"github.com/wyfcoding/quant/xerrors"
)

// 定价方法名.
const (
	MethodBSM       = "bsm"
	MethodBS        = "bs"
	MethodBAW       = "baw"
	MethodHeston    = "heston"
	MethodSABR      = "sabr"
	MethodCorradoSu = "corradoSu"
	MethodCurran    = "curran"
	MethodLSM       = "lsm"
)

// Eps 双精度机器精度的一半，希腊值相对扰动的下限为 2·Eps.
const Eps = 2.220446049250313e-16 / 2

const defaultBump = 1e-4

var validate = validator.New()

// Vanilla 期权的基础条款.
type Vanilla struct {
	Strike   float64          `json:"strike"`
	Maturity float64          `json:"maturity" validate:"gt=0"`
	Vol      float64          `json:"vol"      validate:"gt=0"`
	Target   float64          `json:"target"   validate:"gte=0"`
	Type     types.OptionType `json:"type"`
	Method   string           `json:"method"`
}

// NewVanilla 创建默认方法为 bsm 的期权条款.
func NewVanilla(strike, maturity, vol float64, typ types.OptionType) Vanilla {
	return Vanilla{Strike: strike, Maturity: maturity, Vol: vol, Type: typ, Method: MethodBSM}
}

// SigmaT 返回 σ√T.
func (v Vanilla) SigmaT() float64 { return v.Vol * math.Sqrt(v.Maturity) }

// Index 看涨为 +1，看跌为 -1.
func (v Vanilla) Index() float64 { return v.Type.Index() }

// MethodName 未设置时为 bsm.
func (v Vanilla) MethodName() string {
	if v.Method == "" {
		return MethodBSM
	}
	return v.Method
}

// GreekPrecision 希腊值的相对扰动幅度.
type GreekPrecision struct {
	Spot     float64 `json:"spot"`
	Vol      float64 `json:"vol"`
	Time     float64 `json:"time"`
	Rate     float64 `json:"rate"`
	Dividend float64 `json:"dividend"`
}

// PrecisionFromConfig 由配置构造扰动幅度.
func PrecisionFromConfig(c config.GreekConfig) GreekPrecision {
	return GreekPrecision{Spot: c.Spot, Vol: c.Vol, Time: c.Time, Rate: c.Rate, Dividend: c.Dividend}.Normalized()
}

// Normalized 零值取默认 1e-4，其余不低于 2·Eps.
func (g GreekPrecision) Normalized() GreekPrecision {
	fix := func(v float64) float64 {
		if v == 0 || math.IsNaN(v) {
			return defaultBump
		}
		return math.Max(math.Abs(v), 2*Eps)
	}
	return GreekPrecision{
		Spot:     fix(g.Spot),
		Vol:      fix(g.Vol),
		Time:     fix(g.Time),
		Rate:     fix(g.Rate),
		Dividend: fix(g.Dividend),
	}
}

// Models 半解析模型与数值求解参数.
type Models struct {
	Heston    finance.HestonParams    `json:"heston"`
	SABR      finance.SABRParams      `json:"sabr"`
	CorradoSu finance.CorradoSuParams `json:"corrado_su"`
	Solver    Solver                  `json:"solver"`
	Series    Series                  `json:"series"`
	LSM       LSM                     `json:"lsm"`
}

// Solver 美式期权临界价格的牛顿迭代参数.
type Solver struct {
	Iterations int     `json:"iterations"`
	Tolerance  float64 `json:"tolerance"`
}

// Series 双障碍级数的截断参数.
type Series struct {
	MaxIteration int     `json:"max_iteration"`
	Tolerance    float64 `json:"tolerance"`
}

// LSM 最小二乘蒙特卡洛参数.
type LSM struct {
	Degree int    `json:"degree"`
	Paths  int    `json:"paths"`
	Steps  int    `json:"steps"`
	Seed   uint64 `json:"seed"`
}

// DefaultModels 返回 Corrado-Su 取正态矩、Heston 取默认积分参数的模型设置.
func DefaultModels() Models {
	return ModelsFromConfig(config.DefaultPricing())
}

// ModelsFromConfig 由定价配置构造模型参数，SABR 参数保持零值.
func ModelsFromConfig(p config.PricingConfig) Models {
	p = p.Normalized()
	return Models{
		Heston:    finance.HestonParams{Blocks: p.Heston.Blocks, Accuracy: p.Heston.Accuracy}.Normalized(),
		CorradoSu: finance.DefaultCorradoSu(),
		Solver:    Solver{Iterations: p.Newton.Iterations, Tolerance: math.Max(p.Newton.Tolerance, 1e-10)},
		Series:    Series{MaxIteration: p.Series.MaxIteration, Tolerance: p.Series.Tolerance},
		LSM:       LSM{Degree: 2, Paths: 20000, Steps: 50, Seed: uint64(p.MonteCarlo.Seed)},
	}
}

// Contract 单一标的期权的完整定价输入.
type Contract struct {
	Underlying underlying.Underlying
	Vanilla    Vanilla
	Surface    *volatility.Surface
	Precision  GreekPrecision
	Models     Models
}

// NewContract 以默认扰动与模型参数创建合约.
func NewContract(u underlying.Underlying, v Vanilla) Contract {
	return Contract{
		Underlying: u,
		Vanilla:    v,
		Precision:  GreekPrecision{}.Normalized(),
		Models:     DefaultModels(),
	}
}

// Validate 校验标的与条款.
func (c Contract) Validate() error {
	if err := c.Underlying.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c.Vanilla); err != nil {
		return xerrors.ErrInvalidOption.With(err, "vanilla terms")
	}
	if !c.Vanilla.Type.Valid() {
		return xerrors.ErrInvalidOptionType.With(nil, "option type %q", c.Vanilla.Type)
	}
	return nil
}

// Inputs 转换为解析公式的输入.
func (c Contract) Inputs() finance.Inputs {
	return finance.Inputs{
		Spot:     c.Underlying.SpotPrice,
		Strike:   c.Vanilla.Strike,
		Rate:     c.Underlying.RiskFreeRate,
		Dividend: c.Underlying.Dividend(),
		Vol:      c.Vanilla.Vol,
		T:        c.Vanilla.Maturity,
		Type:     c.Vanilla.Type,
	}
}

// DiscountRate 返回 e^{-rT}.
func (c Contract) DiscountRate() float64 {
	return math.Exp(-c.Underlying.RiskFreeRate * c.Vanilla.Maturity)
}

// HasSurface 是否设置了有效的波动率曲面.
func (c Contract) HasSurface() bool { return c.Surface.Valid() }

// LocalVol 在价格 s、剩余期限 t 处查询曲面，曲面无效时返回期权波动率.
func (c Contract) LocalVol(s, t float64) float64 {
	if !c.HasSurface() {
		return c.Vanilla.Vol
	}
	return c.Surface.Vol(volatility.Moneyness(c.Vanilla.Strike, s), t)
}

// ATMVol 平值波动率：曲面在 moneyness 1 处的值，无曲面时为期权波动率.
func (c Contract) ATMVol() float64 {
	if !c.HasSurface() {
		return c.Vanilla.Vol
	}
	return c.Surface.Vol(1, c.Vanilla.Maturity)
}

// WithSpot 返回替换现价后的合约.
func (c Contract) WithSpot(s float64) Contract {
	c.Underlying = c.Underlying.WithSpot(s)
	return c
}

// WithVol 返回替换波动率后的合约.
func (c Contract) WithVol(vol float64) Contract {
	c.Vanilla.Vol = vol
	return c
}

// WithMaturity 返回替换剩余期限后的合约.
func (c Contract) WithMaturity(t float64) Contract {
	c.Vanilla.Maturity = t
	return c
}

// WithRate 返回替换无风险利率后的合约.
func (c Contract) WithRate(r float64) Contract {
	c.Underlying = c.Underlying.WithRate(r)
	return c
}

// WithDividend 返回替换分红率后的合约，期货标的不受影响.
func (c Contract) WithDividend(q float64) Contract {
	c.Underlying = c.Underlying.WithDividend(q)
	return c
}

// WithMethod 返回替换定价方法后的合约.
func (c Contract) WithMethod(method string) Contract {
	c.Vanilla.Method = method
	return c
}

// WithSurface 返回替换波动率曲面后的合约，曲面本身不被复制.
func (c Contract) WithSurface(s *volatility.Surface) Contract {
	c.Surface = s
	return c
}

// WithRefreshedSurface 平移曲面使其在当前 K/S、T 处等于期权波动率；无曲面时使用常数曲面.
func (c Contract) WithRefreshedSurface() Contract {
	if !c.HasSurface() {
		c.Surface = volatility.Flat(c.Vanilla.Vol)
		return c
	}
	m := volatility.Moneyness(c.Vanilla.Strike, c.Underlying.SpotPrice)
	c.Surface = c.Surface.Refreshed(c.Vanilla.Vol, m, c.Vanilla.Maturity)
	return c
}

// TimePoints 长度为 n 的路径对应的时间点 t_i = T·i/(n-1).
func TimePoints(t float64, n int) []float64 {
	points := make([]float64, n)
	if n < 2 {
		return points
	}
	for i := range points {
		points[i] = t * float64(i) / float64(n-1)
	}
	return points
}

// MethodTable 方法名到定价函数的映射，取代反射调用.
type MethodTable map[string]func() (float64, error)

// Option 期权品种的公共接口.
type Option interface {
	// Contract 返回期权的合约.
	Contract() Contract
	// WithContract 返回替换合约后的同类期权.
	WithContract(Contract) Option
	// Methods 返回可用的解析定价方法.
	Methods() MethodTable
	// Validate 校验合约与品种参数.
	Validate() error
}

// FiniteDifferencePricer 可用有限差分定价的期权.
type FiniteDifferencePricer interface {
	Option
	// Payoff 返回各价格节点上的到期收益.
	Payoff(spots []float64) []float64
}

// EarlyExerciser 可提前行权的期权，有限差分逐步与收益取大.
type EarlyExerciser interface {
	EarlyExercise() bool
}

// MonteCarloPricer 可用蒙特卡洛定价的期权.
type MonteCarloPricer interface {
	Option
	// PathPayoff 返回一条价格路径的贴现收益，path[0] 为当前价格.
	PathPayoff(path []float64) float64
}

// EarlyExercise 是否允许提前行权.
func EarlyExercise(o Option) bool {
	e, ok := o.(EarlyExerciser)
	return ok && e.EarlyExercise()
}

// HasMethod 期权是否支持 name 对应的解析方法.
func HasMethod(o Option, name string) bool {
	_, ok := o.Methods()[name]
	return ok
}

// vanillaPayoff 到期收益 max(±(s-k), 0).
func vanillaPayoff(c Contract, s float64) float64 {
	return math.Max(c.Vanilla.Index()*(s-c.Vanilla.Strike), 0)
}

func payoffs(spots []float64, fn func(s float64) float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		out[i] = fn(s)
	}
	return out
}

func plain(fn func() float64) func() (float64, error) {
	return func() (float64, error) { return fn(), nil }
}
