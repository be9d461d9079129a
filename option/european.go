package option

import (
	"math"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/xerrors"
)

// European 欧式香草期权.
type European struct {
	contract Contract
}

// NewEuropean 创建欧式期权.
func NewEuropean(c Contract) *European { return &European{contract: c} }

func (o *European) Contract() Contract { return o.contract }

func (o *European) WithContract(c Contract) Option { return &European{contract: c} }

func (o *European) Validate() error { return o.contract.Validate() }

// Methods bsm、heston、sabr 与 corradoSu.
func (o *European) Methods() MethodTable {
	c := o.contract
	in := c.Inputs()
	return MethodTable{
		MethodBSM:       plain(func() float64 { return finance.BSM(in) }),
		MethodHeston:    plain(func() float64 { return finance.Heston(in, c.Models.Heston) }),
		MethodSABR:      plain(func() float64 { return finance.SABR(in, c.Models.SABR, c.ATMVol()) }),
		MethodCorradoSu: plain(func() float64 { return finance.CorradoSu(in, c.Models.CorradoSu) }),
	}
}

func (o *European) Payoff(spots []float64) []float64 {
	return payoffs(spots, func(s float64) float64 { return vanillaPayoff(o.contract, s) })
}

func (o *European) PathPayoff(path []float64) float64 {
	return vanillaPayoff(o.contract, path[len(path)-1]) * o.contract.DiscountRate()
}

// American 美式香草期权. bsm 方法按 BAW 近似定价.
type American struct {
	contract Contract
}

// NewAmerican 创建美式期权.
func NewAmerican(c Contract) *American { return &American{contract: c} }

func (o *American) Contract() Contract { return o.contract }

func (o *American) WithContract(c Contract) Option { return &American{contract: c} }

func (o *American) Validate() error { return o.contract.Validate() }

// Methods bsm 与 baw 均为 Barone-Adesi-Whaley，bs 为 Bjerksund-Stensland 2002，lsm 为最小二乘蒙特卡洛.
func (o *American) Methods() MethodTable {
	c := o.contract
	in := c.Inputs()
	baw := func() (float64, error) {
		return finance.BAW(in, c.Models.Solver.Tolerance, c.Models.Solver.Iterations)
	}
	return MethodTable{
		MethodBSM: baw,
		MethodBAW: baw,
		MethodBS:  plain(func() float64 { return finance.BS2002(in) }),
		MethodLSM: func() (float64, error) {
			l := c.Models.LSM
			return finance.NewLSMPricer(l.Degree, l.Paths, l.Steps, l.Seed).Price(in)
		},
	}
}

// EarlyExercise 美式期权允许提前行权.
func (o *American) EarlyExercise() bool { return true }

func (o *American) Payoff(spots []float64) []float64 {
	return payoffs(spots, func(s float64) float64 { return vanillaPayoff(o.contract, s) })
}

// CashOrNothing 现金或无期权，到期价内时支付固定现金.
type CashOrNothing struct {
	contract Contract
	Cash     float64
}

// NewCashOrNothing 创建现金或无期权.
func NewCashOrNothing(c Contract, cash float64) *CashOrNothing {
	return &CashOrNothing{contract: c, Cash: cash}
}

func (o *CashOrNothing) Contract() Contract { return o.contract }

func (o *CashOrNothing) WithContract(c Contract) Option {
	return &CashOrNothing{contract: c, Cash: o.Cash}
}

func (o *CashOrNothing) Validate() error {
	if err := o.contract.Validate(); err != nil {
		return err
	}
	if o.Cash <= 0 || math.IsNaN(o.Cash) {
		return xerrors.ErrInvalidOption.With(nil, "cash %g must be positive", o.Cash)
	}
	return nil
}

func (o *CashOrNothing) Methods() MethodTable {
	in := o.contract.Inputs()
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.CashOrNothing(in, o.Cash) }),
	}
}

func (o *CashOrNothing) exercised(s float64) float64 {
	if o.contract.Vanilla.Index()*(s-o.contract.Vanilla.Strike) > 0 {
		return o.Cash
	}
	return 0
}

func (o *CashOrNothing) Payoff(spots []float64) []float64 {
	return payoffs(spots, o.exercised)
}

func (o *CashOrNothing) PathPayoff(path []float64) float64 {
	return o.exercised(path[len(path)-1]) * o.contract.DiscountRate()
}
