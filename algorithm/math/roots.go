package math

import (
	"math"
	"math/cmplx"

	"github.com/wyfcoding/quant/xerrors"
)

// RootFunc 返回 f(x) 与 f'(x).
type RootFunc func(x float64) (f, df float64, err error)

// NewtonBisect 在 [lower, upper] 内求 f 的根：优先牛顿步，步长越界时退化为二分.
// 达到迭代上限时返回当前最优估计与 ErrMaxIteration，导数为零或出现非有限值时返回 ErrSingular.
// 端点同号时仍在区间内进行牛顿迭代.
func NewtonBisect(fn RootFunc, estimate, lower, upper, tol float64, maxIter int) (float64, int, error) {
	if lower > upper {
		lower, upper = upper, lower
	}
	x := math.Min(math.Max(estimate, lower), upper)

	fl, _, err := fn(lower)
	if err != nil {
		return x, 0, xerrors.ErrCalculation.With(err, "root function at lower bound %g", lower)
	}
	fh, _, err := fn(upper)
	if err != nil {
		return x, 0, xerrors.ErrCalculation.With(err, "root function at upper bound %g", upper)
	}
	if fl == 0 {
		return lower, 0, nil
	}
	if fh == 0 {
		return upper, 0, nil
	}

	bracketed := fl*fh < 0
	// 保持 f(neg) < 0 < f(pos)
	neg, pos := lower, upper
	if fl > 0 {
		neg, pos = upper, lower
	}

	for i := 1; i <= maxIter; i++ {
		f, df, err := fn(x)
		if err != nil {
			return x, i, xerrors.ErrCalculation.With(err, "root function at %g", x)
		}
		if !IsFinite(f) || !IsFinite(df) {
			return x, i, xerrors.ErrSingular.With(nil, "non-finite value f=%g df=%g at %g", f, df, x)
		}
		if f == 0 {
			return x, i, nil
		}
		if df == 0 {
			return x, i, xerrors.ErrSingular.With(nil, "zero derivative at %g", x)
		}
		if bracketed {
			if f < 0 {
				neg = x
			} else {
				pos = x
			}
		}

		next := x - f/df
		switch {
		case bracketed && (next <= math.Min(neg, pos) || next >= math.Max(neg, pos)):
			next = (neg + pos) / 2
		case next < lower:
			next = (x + lower) / 2
		case next > upper:
			next = (x + upper) / 2
		}

		if math.Abs(next-x) < tol {
			return next, i, nil
		}
		x = next
	}
	return x, maxIter, xerrors.ErrMaxIteration.With(nil, "newton bisection stopped after %d iterations at %g", maxIter, x)
}

// QuadraticRoots 求 a0 + a1·x + a2·x² = 0 的两个复根.
func QuadraticRoots(a0, a1, a2 float64) []complex128 {
	if a2 == 0 {
		if a1 == 0 {
			return nil
		}
		return []complex128{complex(-a0/a1, 0)}
	}
	disc := cmplx.Sqrt(complex(a1*a1-4*a2*a0, 0))
	return []complex128{
		(complex(-a1, 0) + disc) / complex(2*a2, 0),
		(complex(-a1, 0) - disc) / complex(2*a2, 0),
	}
}

// CubicRoots 求 a0 + a1·x + a2·x² + a3·x³ = 0 的三个复根 (Cardano).
func CubicRoots(a0, a1, a2, a3 float64) []complex128 {
	if a3 == 0 {
		return QuadraticRoots(a0, a1, a2)
	}
	b, c, d := a2/a3, a1/a3, a0/a3
	shift := complex(-b/3, 0)
	p := c - b*b/3
	q := 2*b*b*b/27 - b*c/3 + d

	if p == 0 && q == 0 {
		return []complex128{shift, shift, shift}
	}

	sq := cmplx.Sqrt(complex(q*q/4+p*p*p/27, 0))
	u := cmplx.Pow(complex(-q/2, 0)+sq, 1.0/3)
	if cmplx.Abs(u) == 0 {
		u = cmplx.Pow(complex(-q/2, 0)-sq, 1.0/3)
	}
	omega := complex(-0.5, math.Sqrt(3)/2)
	roots := make([]complex128, 3)
	w := complex(1, 0)
	for k := range roots {
		uk := u * w
		roots[k] = uk - complex(p, 0)/(3*uk) + shift
		w *= omega
	}
	return roots
}

// SmallestPositiveReal 返回严格为正的最小实根，没有时返回 0.
// 虚部不超过 1e-12·max(1, |z|) 的根视为实根.
func SmallestPositiveReal(roots []complex128) float64 {
	best := math.Inf(1)
	for _, r := range roots {
		scale := math.Max(1, cmplx.Abs(r))
		if math.Abs(imag(r)) <= 1e-12*scale && real(r) > 0 {
			best = math.Min(best, real(r))
		}
	}
	if math.IsInf(best, 1) {
		return 0
	}
	return best
}
