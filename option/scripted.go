package option

import (
	"fmt"
	"math"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/wyfcoding/quant/xerrors"
)

// PathEnv 收益表达式可见的变量.
type PathEnv struct {
	Path   []float64 `expr:"path"`
	Times  []float64 `expr:"times"`
	Spot   float64   `expr:"spot"`
	Last   float64   `expr:"last"`
	High   float64   `expr:"high"`
	Low    float64   `expr:"low"`
	Strike float64   `expr:"strike"`
	T      float64   `expr:"t"`
	Rate   float64   `expr:"r"`
}

// Scripted 收益由表达式给出的路径依赖期权，只能用蒙特卡洛定价.
// 表达式返回到期收益，例如 "max(last - strike, 0)"，贴现由期权完成.
type Scripted struct {
	contract   Contract
	Expression string
	program    *vm.Program
}

// NewScripted 编译收益表达式.
func NewScripted(c Contract, expression string) (*Scripted, error) {
	program, err := expr.Compile(expression, expr.Env(PathEnv{}), expr.AsFloat64())
	if err != nil {
		return nil, xerrors.ErrInvalidOption.With(err, "compile payoff %q", expression)
	}
	return &Scripted{contract: c, Expression: expression, program: program}, nil
}

func (o *Scripted) Contract() Contract { return o.contract }

func (o *Scripted) WithContract(c Contract) Option {
	return &Scripted{contract: c, Expression: o.Expression, program: o.program}
}

func (o *Scripted) Validate() error {
	if o.program == nil {
		return xerrors.ErrInvalidOption.With(nil, "payoff %q not compiled", o.Expression)
	}
	return o.contract.Validate()
}

func (o *Scripted) Methods() MethodTable { return MethodTable{} }

// Evaluate 在一条路径上求值表达式，不做贴现.
func (o *Scripted) Evaluate(path []float64) (float64, error) {
	if len(path) == 0 {
		return 0, xerrors.ErrEmptyData.With(nil, "empty path")
	}
	c := o.contract
	env := PathEnv{
		Path:   path,
		Times:  TimePoints(c.Vanilla.Maturity, len(path)),
		Spot:   path[0],
		Last:   path[len(path)-1],
		High:   slices.Max(path),
		Low:    slices.Min(path),
		Strike: c.Vanilla.Strike,
		T:      c.Vanilla.Maturity,
		Rate:   c.Underlying.RiskFreeRate,
	}
	out, err := expr.Run(o.program, env)
	if err != nil {
		return 0, fmt.Errorf("evaluate payoff %q: %w", o.Expression, err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, xerrors.ErrNaNResult.With(nil, "payoff returned %T", out)
	}
	return v, nil
}

// PathPayoff 求值失败时返回 NaN，由调用方按 NaN 结果处理.
func (o *Scripted) PathPayoff(path []float64) float64 {
	v, err := o.Evaluate(path)
	if err != nil {
		return math.NaN()
	}
	return v * o.contract.DiscountRate()
}
