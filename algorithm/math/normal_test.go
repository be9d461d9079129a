package math

import (
	"math"
	"testing"
)

func TestNormalCDFAgainstErf(t *testing.T) {
	for _, x := range []float64{-38, -12, -6, -5.6, -3, -1, -0.6, -0.1, 0, 1e-20, 0.3, 0.674, 0.7, 2.5, 5.65, 8, 30} {
		want := 0.5 * math.Erfc(-x/math.Sqrt2)
		got := NormalCDF(x)
		if diff := math.Abs(got - want); diff > 1e-14 && diff > 1e-13*want {
			t.Errorf("NormalCDF(%v) = %.17g, want %.17g", x, got, want)
		}
	}
}

func TestNormalCDFSpecialValues(t *testing.T) {
	if NormalCDF(math.Inf(1)) != 1 || NormalCDF(math.Inf(-1)) != 0 {
		t.Error("infinite inputs should map to 0 and 1")
	}
	if !math.IsNaN(NormalCDF(math.NaN())) {
		t.Error("NaN input should give NaN")
	}
	if NormalCDF(-40) != 0 {
		t.Errorf("NormalCDF(-40) = %g, want 0", NormalCDF(-40))
	}
	if got := NormalCDF(Eps / 2); got != 0.5 {
		t.Errorf("NormalCDF(tiny) = %v, want 0.5", got)
	}
}

func TestNormalPDF(t *testing.T) {
	if got, want := NormalPDF(0), 1/math.Sqrt(2*math.Pi); math.Abs(got-want) > 1e-16 {
		t.Errorf("NormalPDF(0) = %v, want %v", got, want)
	}
	if NormalPDF(1.3) != NormalPDF(-1.3) {
		t.Error("NormalPDF should be symmetric")
	}
}

func TestBinormalIndependent(t *testing.T) {
	for _, x := range []float64{-2, -0.5, 0, 0.7, 1.9} {
		for _, y := range []float64{-1.1, 0, 0.4, 2.2} {
			got := BinormalCDF(x, y, 0)
			want := NormalCDF(x) * NormalCDF(y)
			if math.Abs(got-want) > 1e-15 {
				t.Errorf("BinormalCDF(%v, %v, 0) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestBinormalPerfectCorrelation(t *testing.T) {
	for _, x := range []float64{-1.5, 0, 0.8} {
		if got, want := BinormalCDF(x, x, 1), NormalCDF(x); math.Abs(got-want) > 1e-15 {
			t.Errorf("BinormalCDF(%v, %v, 1) = %v, want %v", x, x, got, want)
		}
		// ρ = -1: P(-x ≤ X ≤ x)
		if got, want := BinormalCDF(x, x, -1), math.Max(0, NormalCDF(x)-NormalCDF(-x)); math.Abs(got-want) > 1e-15 {
			t.Errorf("BinormalCDF(%v, %v, -1) = %v, want %v", x, x, got, want)
		}
	}
}

func TestBinormalKnownValues(t *testing.T) {
	tests := []struct {
		x, y, rho, want float64
	}{
		// P(X≤0, Y≤0) = 1/4 + asin(ρ)/(2π)
		{0, 0, 0.5, 0.25 + math.Asin(0.5)/(2*math.Pi)},
		{0, 0, -0.5, 0.25 + math.Asin(-0.5)/(2*math.Pi)},
		{0, 0, 0.95, 0.25 + math.Asin(0.95)/(2*math.Pi)},
		{0, 0, -0.95, 0.25 + math.Asin(-0.95)/(2*math.Pi)},
	}
	for _, tt := range tests {
		if got := BinormalCDF(tt.x, tt.y, tt.rho); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("BinormalCDF(%v, %v, %v) = %.15f, want %.15f", tt.x, tt.y, tt.rho, got, tt.want)
		}
	}
}

func TestBinormalSymmetryAndBounds(t *testing.T) {
	for _, rho := range []float64{-0.99, -0.8, -0.2, 0.1, 0.6, 0.93, 0.999} {
		a := BinormalCDF(0.3, -1.2, rho)
		b := BinormalCDF(-1.2, 0.3, rho)
		if math.Abs(a-b) > 1e-12 {
			t.Errorf("rho %v: not symmetric %v vs %v", rho, a, b)
		}
		if a < 0 || a > math.Min(NormalCDF(0.3), NormalCDF(-1.2))+1e-12 {
			t.Errorf("rho %v: %v outside Fréchet bounds", rho, a)
		}
	}
}
