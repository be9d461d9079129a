package finance

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/xerrors"
)

func TestSpreadZeroStrikeIsMargrabe(t *testing.T) {
	leg1 := Inputs{Spot: 100, Strike: 0, Rate: 0.05, Dividend: 0.05, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	leg2 := Inputs{Spot: 90, Rate: 0.05, Dividend: 0.05, Vol: 0.2}
	got, err := Spread(leg1, leg2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	vol := math.Sqrt(0.09 + 0.04 - 2*0.5*0.3*0.2)
	want := BSM(Inputs{Spot: 100, Strike: 90, Rate: 0.05, Dividend: 0.05, Vol: vol, T: 1, Type: types.OptionTypeCall})
	if math.Abs(got-want) > 1e-4 {
		t.Errorf("spread = %v, margrabe = %v", got, want)
	}
}

func TestSpreadParity(t *testing.T) {
	leg1 := Inputs{Spot: 100, Strike: 5, Rate: 0.05, Dividend: 0.05, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	leg2 := Inputs{Spot: 90, Rate: 0.05, Dividend: 0.05, Vol: 0.2}
	call, err := Spread(leg1, leg2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	put, err := Spread(withType(leg1, types.OptionTypePut), leg2, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	want := leg1.DiscountRate() * (100 - 90 - 5)
	if math.Abs(call-put-want) > 1e-3 {
		t.Errorf("call-put = %v, want %v", call-put, want)
	}
}

func TestSpreadNegativeStrikeSwapsLegs(t *testing.T) {
	leg1 := Inputs{Spot: 100, Strike: -5, Rate: 0.05, Dividend: 0.05, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	leg2 := Inputs{Spot: 90, Rate: 0.05, Dividend: 0.05, Vol: 0.2}
	got, err := Spread(leg1, leg2, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	swapped := leg2
	swapped.Strike, swapped.T, swapped.Type = 5, 1, types.OptionTypePut
	want, err := Spread(swapped, leg1, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != want || got < leg1.DiscountRate()*15-1e-3 {
		t.Errorf("spread = %v, swapped = %v", got, want)
	}
}

func TestQuotient(t *testing.T) {
	leg1 := Inputs{Spot: 100, Strike: 1, Rate: 0.05, Dividend: 0.05, Vol: 0.25, T: 1, Type: types.OptionTypeCall}
	leg2 := Inputs{Spot: 100, Rate: 0.05, Dividend: 0.05, Vol: 0.25}
	call := Quotient(leg1, leg2, 0)
	put := Quotient(withType(leg1, types.OptionTypePut), leg2, 0)
	forward := math.Exp(0.0625)
	if diff := call - put - leg1.DiscountRate()*(forward-1); math.Abs(diff) > 1e-10 {
		t.Errorf("parity gap %v", diff)
	}
}

func TestBasketSingleLegIsVanilla(t *testing.T) {
	leg := Inputs{Spot: 100, Strike: 95, Rate: 0.04, Dividend: 0.01, Vol: 0.3, T: 0.5, Type: types.OptionTypePut}
	got, err := Basket([]Inputs{leg}, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	if want := BSM(leg); math.Abs(got-want) > 1e-10 {
		t.Errorf("basket = %v, vanilla = %v", got, want)
	}
}

func TestBasketSyntheticVol(t *testing.T) {
	leg := Inputs{Spot: 50, Strike: 100, Rate: 0.04, Dividend: 0.01, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	syn, err := BasketSynthetic([]Inputs{leg, leg}, [][]float64{{1, 1}, {1, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(syn.Vol-0.3) > 1e-12 || math.Abs(syn.Spot-2*leg.Forward()) > 1e-12 {
		t.Errorf("synthetic = %+v", syn)
	}

	low, err := BasketSynthetic([]Inputs{leg, leg}, [][]float64{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if low.Vol >= 0.3 {
		t.Errorf("uncorrelated basket vol %v should be below single-leg vol", low.Vol)
	}
}

func TestBasketRejectsBadCorrelation(t *testing.T) {
	leg := Inputs{Spot: 50, Strike: 100, Rate: 0.04, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	cases := map[string][][]float64{
		"rows":      {{1, 0}},
		"diagonal":  {{1, 0}, {0, 2}},
		"asymmetry": {{1, 0.2}, {0.3, 1}},
	}
	for name, corr := range cases {
		if _, err := Basket([]Inputs{leg, leg}, corr); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
	if _, err := Basket(nil, nil); !errors.Is(err, xerrors.ErrEmptyData) {
		t.Errorf("empty basket: got %v", err)
	}
}
