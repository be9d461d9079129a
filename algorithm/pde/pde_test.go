package pde

import (
	"math"
	"testing"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/underlying"
	"github.com/wyfcoding/quant/volatility"
)

func contract(typ types.OptionType) option.Contract {
	return option.NewContract(underlying.NewSpot(100, 0.1, 0.1), option.NewVanilla(100, 1, 0.3, typ))
}

func TestGridNormalized(t *testing.T) {
	g := Grid{TimePoints: 1}.Normalized()
	if g.TimePoints != minPoints || g.LowerPricePoints != DefaultLowerPricePoints {
		t.Errorf("Normalized = %+v", g)
	}
	spots := DefaultGrid().Spots(50)
	if len(spots) != 501 || spots[0] != 0 || spots[100] != 50 || math.Abs(spots[500]-250) > 1e-9 {
		t.Errorf("spots: len %d, [0]=%v [100]=%v [500]=%v", len(spots), spots[0], spots[100], spots[500])
	}
}

func TestEuropeanMatchesBSM(t *testing.T) {
	for _, typ := range []types.OptionType{types.OptionTypeCall, types.OptionTypePut} {
		c := contract(typ)
		sol, err := Solve(option.NewEuropean(c), DefaultGrid())
		if err != nil {
			t.Fatal(err)
		}
		want := finance.BSM(c.Inputs())
		if rel := math.Abs(sol.Price()-want) / want; rel > 0.005 {
			t.Errorf("%s: fd %v vs bsm %v (rel %v)", typ, sol.Price(), want, rel)
		}

		g := finance.ClosedFormGreeks(c.Inputs())
		if math.Abs(sol.Delta()-g.Delta) > 1e-3 {
			t.Errorf("%s: delta %v vs %v", typ, sol.Delta(), g.Delta)
		}
		if math.Abs(sol.Gamma()-g.Gamma)/g.Gamma > 0.02 {
			t.Errorf("%s: gamma %v vs %v", typ, sol.Gamma(), g.Gamma)
		}
		if sol.Theta() >= 0 {
			t.Errorf("%s: theta %v should be negative", typ, sol.Theta())
		}
	}
}

func TestAmericanEarlyExercise(t *testing.T) {
	c := contract(types.OptionTypePut)
	eu, err := Solve(option.NewEuropean(c), DefaultGrid())
	if err != nil {
		t.Fatal(err)
	}
	am, err := Solve(option.NewAmerican(c), DefaultGrid())
	if err != nil {
		t.Fatal(err)
	}
	if am.Price() <= eu.Price() {
		t.Errorf("american %v should exceed european %v", am.Price(), eu.Price())
	}
	for i, s := range am.Spots {
		if am.Now[i] < math.Max(100-s, 0)-1e-12 {
			t.Fatalf("node %d below intrinsic: %v", i, am.Now[i])
		}
	}
}

func TestEuropeanError(t *testing.T) {
	e, err := EuropeanError(contract(types.OptionTypeCall), DefaultGrid())
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(e) > 0.05 {
		t.Errorf("european error = %v", e)
	}
}

func TestLocalVolWithFlatSurface(t *testing.T) {
	c := contract(types.OptionTypeCall)
	g := Grid{TimePoints: 101, LowerPricePoints: 50}
	flat, err := Solve(option.NewEuropean(c), g)
	if err != nil {
		t.Fatal(err)
	}
	g.LocalVol = true
	local, err := Solve(option.NewEuropean(c.WithSurface(volatility.Flat(0.3))), g)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(flat.Price()-local.Price()) > 1e-8 {
		t.Errorf("flat surface %v vs constant vol %v", local.Price(), flat.Price())
	}

	skewed := rowVols(c.WithSurface(volatility.Flat(0.3).Shifted(0.1)), g.Spots(100), true)
	if skewed[0] != skewed[1] || math.Abs(skewed[50]-0.4) > 1e-9 {
		t.Errorf("row vols at 0, 1, spot = %v %v %v", skewed[0], skewed[1], skewed[50])
	}
}

func TestCashOrNothingFD(t *testing.T) {
	c := contract(types.OptionTypeCall)
	sol, err := Solve(option.NewCashOrNothing(c, 10), DefaultGrid())
	if err != nil {
		t.Fatal(err)
	}
	want := finance.CashOrNothing(c.Inputs(), 10)
	if math.Abs(sol.Price()-want)/want > 0.03 {
		t.Errorf("cash-or-nothing fd %v vs %v", sol.Price(), want)
	}
}
