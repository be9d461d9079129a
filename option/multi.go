package option

import (
	"math"
	"slices"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/xerrors"
)

// 多资产期权的第一条腿携带行权价、期限与期权类型，Contract 与 WithContract 作用于第一条腿，
// 因此希腊值是对第一条腿的偏导.

func validateRho(rho float64) error {
	if math.IsNaN(rho) || rho < -1 || rho > 1 {
		return xerrors.ErrInvalidInput.With(nil, "correlation %g outside [-1, 1]", rho)
	}
	return nil
}

// legInputs 非首腿只提供标的与波动率，期限与首腿一致.
func legInputs(first, leg Contract) finance.Inputs {
	in := leg.Inputs()
	in.T = first.Vanilla.Maturity
	return in
}

// Spread 价差期权 max(±(S1 - S2 - K), 0).
type Spread struct {
	first  Contract
	second Contract
	Rho    float64
}

// NewSpread 创建价差期权，first 携带行权价与期限.
func NewSpread(first, second Contract, rho float64) *Spread {
	return &Spread{first: first, second: second, Rho: rho}
}

func (o *Spread) Contract() Contract { return o.first }

// Second 返回第二条腿.
func (o *Spread) Second() Contract { return o.second }

func (o *Spread) WithContract(c Contract) Option {
	return &Spread{first: c, second: o.second, Rho: o.Rho}
}

func (o *Spread) Validate() error {
	if err := o.first.Validate(); err != nil {
		return err
	}
	if err := o.second.Underlying.Validate(); err != nil {
		return err
	}
	return validateRho(o.Rho)
}

func (o *Spread) Methods() MethodTable {
	leg1, leg2 := o.first.Inputs(), legInputs(o.first, o.second)
	return MethodTable{
		MethodBSM: func() (float64, error) { return finance.Spread(leg1, leg2, o.Rho) },
	}
}

// Quotient 商期权 max(±(S1/S2 - K), 0).
type Quotient struct {
	first  Contract
	second Contract
	Rho    float64
}

// NewQuotient 创建商期权.
func NewQuotient(first, second Contract, rho float64) *Quotient {
	return &Quotient{first: first, second: second, Rho: rho}
}

func (o *Quotient) Contract() Contract { return o.first }

// Second 返回第二条腿.
func (o *Quotient) Second() Contract { return o.second }

func (o *Quotient) WithContract(c Contract) Option {
	return &Quotient{first: c, second: o.second, Rho: o.Rho}
}

func (o *Quotient) Validate() error {
	if err := o.first.Validate(); err != nil {
		return err
	}
	if err := o.second.Underlying.Validate(); err != nil {
		return err
	}
	return validateRho(o.Rho)
}

func (o *Quotient) Methods() MethodTable {
	leg1, leg2 := o.first.Inputs(), legInputs(o.first, o.second)
	return MethodTable{
		MethodBSM: plain(func() float64 { return finance.Quotient(leg1, leg2, o.Rho) }),
	}
}

// Basket 篮子期权，以矩匹配的合成期货按 BSM 定价.
type Basket struct {
	legs        []Contract
	Correlation [][]float64
}

// NewBasket 创建篮子期权，legs[0] 携带行权价与期限.
func NewBasket(legs []Contract, corr [][]float64) *Basket {
	return &Basket{legs: slices.Clone(legs), Correlation: corr}
}

func (o *Basket) Contract() Contract {
	if len(o.legs) == 0 {
		return Contract{}
	}
	return o.legs[0]
}

// Legs 返回全部腿的副本.
func (o *Basket) Legs() []Contract { return slices.Clone(o.legs) }

func (o *Basket) WithContract(c Contract) Option {
	legs := slices.Clone(o.legs)
	if len(legs) == 0 {
		legs = []Contract{c}
	} else {
		legs[0] = c
	}
	return &Basket{legs: legs, Correlation: o.Correlation}
}

func (o *Basket) inputs() []finance.Inputs {
	out := make([]finance.Inputs, len(o.legs))
	for i, leg := range o.legs {
		out[i] = legInputs(o.legs[0], leg)
	}
	return out
}

func (o *Basket) Validate() error {
	if len(o.legs) == 0 {
		return xerrors.ErrEmptyData.With(nil, "basket has no legs")
	}
	if err := o.legs[0].Validate(); err != nil {
		return err
	}
	for _, leg := range o.legs[1:] {
		if err := leg.Underlying.Validate(); err != nil {
			return err
		}
	}
	_, err := finance.ValidateCorrelation(o.Correlation, len(o.legs))
	return err
}

func (o *Basket) Methods() MethodTable {
	legs := o.inputs()
	return MethodTable{
		MethodBSM: func() (float64, error) { return finance.Basket(legs, o.Correlation) },
	}
}
