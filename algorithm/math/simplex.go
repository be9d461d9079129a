package math

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/wyfcoding/quant/xerrors"
)

// SimplexResult 单纯形搜索的结果.
type SimplexResult struct {
	X     []float64
	Value float64
	Evals int
}

// NelderMead 从 start 出发、以 start 与 start+step_i·e_i 为初始单纯形搜索 fn 的极值.
// maximise 为 true 时求极大值. 返回值中的 Value 为 fn 在 X 处的原始取值.
func NelderMead(fn func(x []float64) float64, start, step []float64, maximise bool) (SimplexResult, error) {
	dim := len(start)
	if dim == 0 {
		return SimplexResult{}, xerrors.ErrEmptyData.With(nil, "simplex start point is empty")
	}
	if len(step) != dim {
		return SimplexResult{}, xerrors.ErrDimMismatch.With(nil, "simplex start %d step %d", dim, len(step))
	}

	sign := 1.0
	if maximise {
		sign = -1
	}
	obj := func(x []float64) float64 {
		v := sign * fn(x)
		if math.IsNaN(v) {
			return math.Inf(1)
		}
		return v
	}

	vertices := make([][]float64, dim+1)
	values := make([]float64, dim+1)
	for i := range vertices {
		v := make([]float64, dim)
		copy(v, start)
		if i > 0 {
			v[i-1] += step[i-1]
		}
		vertices[i] = v
		values[i] = obj(v)
	}

	method := &optimize.NelderMead{
		InitialVertices: vertices,
		InitialValues:   values,
	}
	settings := &optimize.Settings{
		MajorIterations: 5000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}

	res, err := optimize.Minimize(optimize.Problem{Func: obj}, start, settings, method)
	if res == nil {
		return SimplexResult{}, xerrors.ErrMathConvergence.With(err, "nelder mead")
	}
	out := SimplexResult{
		X:     res.X,
		Value: sign * res.F,
		Evals: res.Stats.FuncEvaluations,
	}
	if err != nil {
		return out, xerrors.ErrMathConvergence.With(err, "nelder mead stopped with status %v", res.Status)
	}
	return out, nil
}
