package finance

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/wyfcoding/quant/algorithm/types"
)

func TestHestonWithoutVolOfVolMatchesBSM(t *testing.T) {
	for _, typ := range []types.OptionType{types.OptionTypeCall, types.OptionTypePut} {
		in := Inputs{Spot: 100, Strike: 105, Rate: 0.05, Dividend: 0.02, Vol: 0.25, T: 1, Type: typ}
		p := HestonParams{Beta: 2, LongVol: 0.25, Rho: 0, VolVol: 0}
		if got, want := Heston(in, p), BSM(in); math.Abs(got-want) > 1e-2 {
			t.Errorf("%s: heston = %v, bsm = %v", typ, got, want)
		}
	}
}

func TestHestonParity(t *testing.T) {
	in := Inputs{Spot: 100, Strike: 95, Rate: 0.03, Dividend: 0.01, Vol: 0.2, T: 0.5, Type: types.OptionTypeCall}
	p := HestonParams{Beta: 1.5, LongVol: 0.3, Rho: -0.6, VolVol: 0.4}
	call := Heston(in, p)
	put := Heston(withType(in, types.OptionTypePut), p)
	if call <= in.CallLowerBound() {
		t.Fatalf("call %v not above lower bound %v", call, in.CallLowerBound())
	}
	if diff := call - put - in.CallLowerBound(); math.Abs(diff) > 1e-10 {
		t.Errorf("parity gap %v", diff)
	}
}

func TestHestonParamsNormalized(t *testing.T) {
	p := HestonParams{Blocks: 1 << 30, Accuracy: 1e-12}.Normalized()
	if p.Blocks != maxHestonBlocks || p.Accuracy != minHestonAccuracy {
		t.Errorf("normalized = %+v", p)
	}
	p = HestonParams{}.Normalized()
	if p.Blocks != defaultHestonBlocks || p.Accuracy != defaultHestonAccuracy {
		t.Errorf("defaults = %+v", p)
	}
}

func TestSABRDegenerateCases(t *testing.T) {
	lognormal := SABRParams{Beta: 1, VolVol: 0, Rho: 0}
	for _, k := range []float64{70, 100, 140} {
		in := Inputs{Spot: 100, Strike: k, Rate: 0.05, Dividend: 0.05, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
		if got := SABRVol(in, lognormal, 0.3); math.Abs(got-0.3) > 1e-10 {
			t.Errorf("K=%v: β=1 ν=0 vol = %v, want 0.3", k, got)
		}
	}

	in := Inputs{Spot: 100, Strike: 100, Rate: 0.05, Dividend: 0.05, Vol: 0.2, T: 1, Type: types.OptionTypePut}
	p := SABRParams{Beta: 0.5, VolVol: 0.4, Rho: -0.3}
	if got := SABRVol(in, p, 0.2); math.Abs(got-0.2) > 1e-8 {
		t.Errorf("at the money vol = %v, want 0.2", got)
	}
	if got, want := SABR(in, p, 0.2), BSM(in); math.Abs(got-want) > 1e-6 {
		t.Errorf("atm price = %v, want %v", got, want)
	}
}

func TestSABRSkew(t *testing.T) {
	p := SABRParams{Beta: 0.5, VolVol: 0.5, Rho: -0.5}
	in := Inputs{Spot: 100, Rate: 0.05, Dividend: 0.05, Vol: 0.2, T: 1}
	in.Strike = 80
	low := SABRVol(in, p, 0.2)
	in.Strike = 120
	high := SABRVol(in, p, 0.2)
	if !(low > 0.2 && low > high) {
		t.Errorf("negative rho should produce downward skew: low=%v high=%v", low, high)
	}
}

func TestFitHestonOnSimulatedCloses(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	closes := make([]float64, 400)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * math.Exp(0.2/math.Sqrt(252)*rng.NormFloat64())
	}

	fit, err := FitHeston(closes, 0.02, 0.2, 252)
	if err != nil {
		t.Fatal(err)
	}
	p := fit.Params
	if p.Beta <= 0 || p.LongVol <= 0 || p.VolVol <= 0 || math.Abs(p.Rho) >= 1 {
		t.Errorf("invalid fitted params %+v", p)
	}
	if fit.SpotVol <= 0 || math.IsInf(fit.LogLikelihood, 0) || math.IsNaN(fit.LogLikelihood) {
		t.Errorf("fit = %+v", fit)
	}
}

func TestFitHestonRejectsShortSeries(t *testing.T) {
	if _, err := FitHeston([]float64{100, 101}, 0, 0.2, 252); err == nil {
		t.Error("expected error for two closes")
	}
}
