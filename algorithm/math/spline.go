package math

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/quant/xerrors"
)

// 样条内插与外插方法.
const (
	InterpNatural    = "nature"
	InterpNotAKnot   = "nak"
	ExtrapNatural    = "nature"
	ExtrapTangent    = "tangent"
	ExtrapHorizontal = "horizontal"
)

// Spline 三次样条，第 i 段为 a_i·h³ + b_i·h² + c_i·h + d_i，h = x - x_i.
type Spline struct {
	x, a, b, c, d []float64
}

// NewSpline 由严格递增的节点构建三次样条，method 为 nature 或 nak.
func NewSpline(x, y []float64, method string) (*Spline, error) {
	n := len(x)
	if n != len(y) {
		return nil, xerrors.ErrDimMismatch.With(nil, "spline knots %d values %d", n, len(y))
	}
	if n < 2 {
		return nil, xerrors.ErrEmptyData.With(nil, "spline needs at least 2 knots, got %d", n)
	}
	if method == InterpNotAKnot && n < 4 {
		method = InterpNatural
	}

	h := make([]float64, n)
	for i := range n - 1 {
		h[i] = x[i+1] - x[i]
		if h[i] <= 0 {
			return nil, xerrors.ErrInvalidInput.With(nil, "spline knots must increase at %d", i)
		}
	}

	z := make([]float64, n)
	for i := 1; i < n-1; i++ {
		z[i] = 6 * ((y[i+1]-y[i])/h[i] - (y[i]-y[i-1])/h[i-1])
	}

	var inv mat.Dense
	if err := invert(&inv, splineSystem(h, method)); err != nil {
		return nil, err
	}
	var m mat.VecDense
	m.MulVec(&inv, mat.NewVecDense(n, z))

	s := &Spline{
		x: slices.Clone(x),
		a: make([]float64, n),
		b: make([]float64, n),
		c: make([]float64, n),
		d: slices.Clone(y),
	}
	for i := range n {
		s.b[i] = m.AtVec(i) / 2
	}
	for i := range n - 1 {
		mi, mj := m.AtVec(i), m.AtVec(i+1)
		s.a[i] = (mj - mi) / (6 * h[i])
		s.c[i] = (y[i+1]-y[i])/h[i] - mi*h[i]/2 - (mj-mi)*h[i]/6
	}
	return s, nil
}

// splineSystem 二阶导数方程组的系数矩阵，首末行由边界条件决定.
func splineSystem(h []float64, method string) *mat.Dense {
	n := len(h)
	sys := mat.NewDense(n, n, nil)
	nak := method == InterpNotAKnot
	for i := range n {
		switch {
		case i == 0 && nak:
			sys.Set(0, 0, -h[1])
			sys.Set(0, 1, h[0]+h[1])
			sys.Set(0, 2, -h[0])
		case i == 0:
			sys.Set(0, 0, 1)
		case i == n-1 && nak:
			sys.Set(i, n-3, -h[n-2])
			sys.Set(i, n-2, h[n-2]+h[n-3])
			sys.Set(i, n-1, -h[n-3])
		case i == n-1:
			sys.Set(i, n-1, 1)
		default:
			sys.Set(i, i-1, h[i-1])
			sys.Set(i, i, 2*(h[i-1]+h[i]))
			sys.Set(i, i+1, h[i])
		}
	}
	return sys
}

// invert 求逆，病态但可逆的矩阵照常返回结果.
func invert(dst *mat.Dense, a mat.Matrix) error {
	err := dst.Inverse(a)
	if err == nil {
		return nil
	}
	var cond mat.Condition
	if errors.As(err, &cond) && !math.IsInf(float64(cond), 1) {
		return nil
	}
	return xerrors.ErrSingular.With(err, "matrix inversion")
}

func (s *Spline) segment(i int, x0 float64) float64 {
	h := x0 - s.x[i]
	return ((s.a[i]*h+s.b[i])*h+s.c[i])*h + s.d[i]
}

// Eval 在 x0 处求值，超出节点范围时按 extrap 外插.
func (s *Spline) Eval(x0 float64, extrap string) float64 {
	n := len(s.x)
	switch {
	case math.IsNaN(x0):
		return math.NaN()
	case x0 < s.x[0]:
		switch extrap {
		case ExtrapNatural:
			return s.segment(0, x0)
		case ExtrapTangent:
			return s.d[0] + s.c[0]*(x0-s.x[0])
		default:
			return s.d[0]
		}
	case x0 > s.x[n-1]:
		switch extrap {
		case ExtrapNatural:
			return s.segment(n-2, x0)
		case ExtrapTangent:
			return s.endSlope()*(x0-s.x[n-1]) + s.d[n-1]
		default:
			return s.d[n-1]
		}
	}
	i, found := slices.BinarySearch(s.x, x0)
	if !found {
		i--
	}
	if i >= n-1 {
		i = n - 2
	}
	return s.segment(i, x0)
}

// Slope 在 x0 处的一阶导数.
func (s *Spline) Slope(x0 float64, extrap string) float64 {
	n := len(s.x)
	deriv := func(i int, x float64) float64 {
		h := x - s.x[i]
		return (3*s.a[i]*h+2*s.b[i])*h + s.c[i]
	}
	switch {
	case x0 < s.x[0]:
		switch extrap {
		case ExtrapNatural:
			return deriv(0, x0)
		case ExtrapTangent:
			return s.c[0]
		default:
			return 0
		}
	case x0 > s.x[n-1]:
		switch extrap {
		case ExtrapNatural:
			return deriv(n-2, x0)
		case ExtrapTangent:
			return s.endSlope()
		default:
			return 0
		}
	}
	i, found := slices.BinarySearch(s.x, x0)
	if !found {
		i--
	}
	if i >= n-1 {
		i = n - 2
	}
	return deriv(i, x0)
}

func (s *Spline) endSlope() float64 {
	n := len(s.x)
	h1 := s.x[n-1] - s.x[n-2]
	return (3*s.a[n-2]*h1+2*s.b[n-2])*h1 + s.c[n-2]
}

// Interp1 一维三次样条插值.
func Interp1(x, y []float64, x0 float64, interp, extrap string) (float64, error) {
	s, err := NewSpline(x, y, interp)
	if err != nil {
		return math.NaN(), err
	}
	return s.Eval(x0, extrap), nil
}

// Interp2 曲面插值：z 为 len(ys) 行 len(xs) 列，先在每行上插值 x0，再沿列插值 y0.
// 含 NaN 的行或列先被剔除，剔除行数不多于列数时删行，否则删列.
func Interp2(xs, ys []float64, z [][]float64, x0, y0 float64, interp, extrap string) (float64, error) {
	xs, ys, z, err := dropNaN(xs, ys, z)
	if err != nil {
		return math.NaN(), err
	}
	col := make([]float64, len(ys))
	for i, row := range z {
		if col[i], err = Interp1(xs, row, x0, interp, extrap); err != nil {
			return math.NaN(), err
		}
	}
	return Interp1(ys, col, y0, interp, extrap)
}

func dropNaN(xs, ys []float64, z [][]float64) ([]float64, []float64, [][]float64, error) {
	if len(z) != len(ys) {
		return nil, nil, nil, xerrors.ErrDimMismatch.With(nil, "surface rows %d, axis %d", len(z), len(ys))
	}
	badRows := map[int]bool{}
	badCols := map[int]bool{}
	for i, row := range z {
		if len(row) != len(xs) {
			return nil, nil, nil, xerrors.ErrDimMismatch.With(nil, "surface row %d has %d columns, axis %d", i, len(row), len(xs))
		}
		for j, v := range row {
			if math.IsNaN(v) {
				badRows[i] = true
				badCols[j] = true
			}
		}
	}
	if len(badRows) == 0 {
		return xs, ys, z, nil
	}

	if len(badRows) <= len(badCols) {
		var nys []float64
		var nz [][]float64
		for i := range ys {
			if !badRows[i] {
				nys = append(nys, ys[i])
				nz = append(nz, z[i])
			}
		}
		if len(nz) == 0 {
			return nil, nil, nil, xerrors.ErrEmptyData.With(nil, "surface has no complete rows")
		}
		return xs, nys, nz, nil
	}

	var nxs []float64
	for j := range xs {
		if !badCols[j] {
			nxs = append(nxs, xs[j])
		}
	}
	if len(nxs) == 0 {
		return nil, nil, nil, xerrors.ErrEmptyData.With(nil, "surface has no complete columns")
	}
	nz := make([][]float64, len(z))
	for i, row := range z {
		for j, v := range row {
			if !badCols[j] {
				nz[i] = append(nz[i], v)
			}
		}
	}
	return nxs, ys, nz, nil
}
