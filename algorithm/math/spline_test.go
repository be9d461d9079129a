package math

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/xerrors"
)

func TestSplineReproducesLinearData(t *testing.T) {
	x := []float64{0, 1, 2.5, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 2*v + 1
	}
	for _, method := range []string{InterpNatural, InterpNotAKnot} {
		s, err := NewSpline(x, y, method)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		for _, x0 := range []float64{0.5, 2, 3.7, 5} {
			if got := s.Eval(x0, ExtrapNatural); math.Abs(got-(2*x0+1)) > 1e-10 {
				t.Errorf("%s Eval(%v) = %v, want %v", method, x0, got, 2*x0+1)
			}
		}
	}
}

func TestSplinePassesThroughKnots(t *testing.T) {
	x := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	y := []float64{0.32, 0.27, 0.25, 0.26, 0.29}
	s, err := NewSpline(x, y, InterpNatural)
	if err != nil {
		t.Fatal(err)
	}
	for i := range x {
		if got := s.Eval(x[i], ExtrapNatural); math.Abs(got-y[i]) > 1e-12 {
			t.Errorf("knot %d: got %v, want %v", i, got, y[i])
		}
	}
}

func TestSplineNAKReproducesCubic(t *testing.T) {
	f := func(x float64) float64 { return x*x*x - 2*x*x + 0.5 }
	x := []float64{-1, 0, 0.5, 1.5, 2, 3}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = f(v)
	}
	s, err := NewSpline(x, y, InterpNotAKnot)
	if err != nil {
		t.Fatal(err)
	}
	for _, x0 := range []float64{-0.5, 0.25, 1.1, 2.7} {
		if got := s.Eval(x0, ExtrapNatural); math.Abs(got-f(x0)) > 1e-9 {
			t.Errorf("Eval(%v) = %v, want %v", x0, got, f(x0))
		}
	}
}

func TestSplineExtrapolation(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 4, 9}
	s, err := NewSpline(x, y, InterpNatural)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Eval(5, ExtrapHorizontal); got != 9 {
		t.Errorf("horizontal right = %v, want 9", got)
	}
	if got := s.Eval(-2, ExtrapHorizontal); got != 0 {
		t.Errorf("horizontal left = %v, want 0", got)
	}
	slope := s.Slope(3, ExtrapNatural)
	if got := s.Eval(4, ExtrapTangent); math.Abs(got-(9+slope)) > 1e-12 {
		t.Errorf("tangent right = %v, want %v", got, 9+slope)
	}
	if got := s.Slope(10, ExtrapHorizontal); got != 0 {
		t.Errorf("horizontal slope = %v, want 0", got)
	}
}

func TestNewSplineRejectsBadInput(t *testing.T) {
	if _, err := NewSpline([]float64{0, 1}, []float64{1}, InterpNatural); !errors.Is(err, xerrors.ErrDimMismatch) {
		t.Errorf("expected ErrDimMismatch, got %v", err)
	}
	if _, err := NewSpline([]float64{0, 0, 1}, []float64{1, 2, 3}, InterpNatural); !errors.Is(err, xerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestInterp2Plane(t *testing.T) {
	xs := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	ys := []float64{0.1, 0.25, 0.5, 1, 2}
	z := make([][]float64, len(ys))
	for i, y := range ys {
		z[i] = make([]float64, len(xs))
		for j, x := range xs {
			z[i][j] = 0.2 + 0.1*x - 0.05*y
		}
	}
	got, err := Interp2(xs, ys, z, 0.95, 0.75, InterpNatural, ExtrapNatural)
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.2 + 0.095 - 0.0375; math.Abs(got-want) > 1e-12 {
		t.Errorf("Interp2 = %v, want %v", got, want)
	}
}

func TestInterp2DropsNaNRow(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{1, 2, 3, 4}
	z := [][]float64{
		{1, 1, 1},
		{math.NaN(), 2, 2},
		{3, 3, 3},
		{4, 4, 4},
	}
	got, err := Interp2(xs, ys, z, 2, 3, InterpNatural, ExtrapNatural)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-3) > 1e-12 {
		t.Errorf("Interp2 = %v, want 3", got)
	}
}
