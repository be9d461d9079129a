package finance

import (
	"math"
	"testing"

	"github.com/wyfcoding/quant/algorithm/types"
)

func TestBarrierPriceReferenceTable(t *testing.T) {
	base := Inputs{Spot: 100, Rate: 0.08, Dividend: 0.04, Vol: 0.25, T: 0.5}
	cases := []struct {
		name   string
		strike float64
		typ    types.OptionType
		level  float64
		dir    types.BarrierDirection
		kind   types.BarrierType
		want   float64
	}{
		{"down-out call 100", 100, types.OptionTypeCall, 95, types.BarrierDown, types.BarrierOut, 6.7924},
		{"down-in call 100", 100, types.OptionTypeCall, 95, types.BarrierDown, types.BarrierIn, 4.0109},
		{"up-in call 90", 90, types.OptionTypeCall, 105, types.BarrierUp, types.BarrierIn, 14.1112},
		{"up-in call 100", 100, types.OptionTypeCall, 105, types.BarrierUp, types.BarrierIn, 8.4482},
		{"up-out call 90", 90, types.OptionTypeCall, 105, types.BarrierUp, types.BarrierOut, 2.6789},
		{"down-in put 100", 100, types.OptionTypePut, 95, types.BarrierDown, types.BarrierIn, 6.5677},
		{"up-out put 100", 100, types.OptionTypePut, 105, types.BarrierUp, types.BarrierOut, 5.4932},
		{"up-out put 110", 110, types.OptionTypePut, 105, types.BarrierUp, types.BarrierOut, 7.5187},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			in.Strike = tc.strike
			in.Type = tc.typ
			b := Barrier{Level: tc.level, Type: tc.kind, Direction: tc.dir, Rebate: 3}
			if got := BarrierPrice(in, b); math.Abs(got-tc.want) > 1e-3 {
				t.Errorf("price = %.5f, want %.4f", got, tc.want)
			}
		})
	}
}

func TestBarrierInOutParity(t *testing.T) {
	in := Inputs{Spot: 100, Strike: 100, Rate: 0.05, Dividend: 0.02, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	for _, dir := range []types.BarrierDirection{types.BarrierUp, types.BarrierDown} {
		level := 80.0
		if dir.IsUp() {
			level = 125
		}
		knockIn := BarrierPrice(in, Barrier{Level: level, Type: types.BarrierIn, Direction: dir})
		knockOut := BarrierPrice(in, Barrier{Level: level, Type: types.BarrierOut, Direction: dir})
		if diff := knockIn + knockOut - BSM(in); math.Abs(diff) > 1e-10 {
			t.Errorf("%s: in+out-vanilla = %v", dir, diff)
		}
	}
}

func TestBarrierTouchedAtSpot(t *testing.T) {
	in := Inputs{Spot: 90, Strike: 100, Rate: 0.05, Dividend: 0, Vol: 0.3, T: 1, Type: types.OptionTypeCall}
	b := Barrier{Level: 95, Type: types.BarrierIn, Direction: types.BarrierDown}
	if got, want := BarrierPrice(in, b), BSM(in); math.Abs(got-want) > 1e-12 {
		t.Errorf("touched knock-in = %v, want vanilla %v", got, want)
	}
	b.Type = types.BarrierOut
	b.Rebate = 2
	if got := BarrierPrice(in, b); math.Abs(got-2) > 1e-12 {
		t.Errorf("touched knock-out = %v, want rebate paid at hit", got)
	}
}

func TestBinaryBarrierBounds(t *testing.T) {
	in := Inputs{Spot: 100, Rate: 0.05, Dividend: 0.01, Vol: 0.25, T: 1}
	dr := in.DiscountRate()
	for _, dir := range []types.BarrierDirection{types.BarrierUp, types.BarrierDown} {
		level := 85.0
		if dir.IsUp() {
			level = 115
		}
		b := BinaryBarrier{Level: level, Direction: dir, Cash: 10, Type: types.BarrierIn, Timing: types.PayAtExpiry}
		knockIn := BinaryBarrierPrice(in, b)
		b.Type = types.BarrierOut
		knockOut := BinaryBarrierPrice(in, b)
		if knockIn <= 0 || knockOut <= 0 || math.Abs(knockIn+knockOut-10*dr) > 1e-12 {
			t.Errorf("%s: in=%v out=%v", dir, knockIn, knockOut)
		}

		b.Timing = types.PayAtHit
		hit := BinaryBarrierPrice(in, b)
		if hit <= knockIn || hit >= 10 {
			t.Errorf("%s: pay-at-hit %v should exceed pay-at-expiry %v and stay below cash", dir, hit, knockIn)
		}
	}
}

func TestBinaryBarrierAtLevelPaysCash(t *testing.T) {
	in := Inputs{Spot: 110, Rate: 0.05, Vol: 0.2, T: 1}
	b := BinaryBarrier{Level: 110, Direction: types.BarrierUp, Cash: 5, Type: types.BarrierIn, Timing: types.PayAtHit}
	if got := BinaryBarrierPrice(in, b); math.Abs(got-5) > 1e-9 {
		t.Errorf("at barrier = %v, want 5", got)
	}
}

func TestDoubleBarrierReferenceTable(t *testing.T) {
	in := Inputs{Spot: 100, Strike: 100, Rate: 0.1, Dividend: 0, T: 0.25, Type: types.OptionTypeCall}
	cases := []struct {
		lower, upper float64
		vol          float64
		want         float64
	}{
		{50, 150, 0.15, 4.3515},
		{50, 150, 0.25, 6.1644},
		{60, 140, 0.35, 5.7726},
		{70, 130, 0.25, 4.8293},
		{70, 130, 0.35, 3.7765},
	}
	for _, tc := range cases {
		in.Vol = tc.vol
		d := DoubleBarrier{Upper: tc.upper, Lower: tc.lower, Type: types.BarrierOut}
		if got := DoubleBarrierPrice(in, d); math.Abs(got-tc.want) > 1e-3 {
			t.Errorf("L=%v U=%v σ=%v: price = %.5f, want %.4f", tc.lower, tc.upper, tc.vol, got, tc.want)
		}
	}
}

func TestDoubleBarrierInOutAndTouched(t *testing.T) {
	in := Inputs{Spot: 100, Strike: 95, Rate: 0.05, Dividend: 0.02, Vol: 0.3, T: 1, Type: types.OptionTypePut}
	d := DoubleBarrier{Upper: 130, Lower: 75, Type: types.BarrierOut}
	out := DoubleBarrierPrice(in, d)
	d.Type = types.BarrierIn
	knockIn := DoubleBarrierPrice(in, d)
	if out < 0 || knockIn < 0 || math.Abs(out+knockIn-BSM(in)) > 1e-10 {
		t.Errorf("out=%v in=%v vanilla=%v", out, knockIn, BSM(in))
	}

	in.Spot = 140
	if got := DoubleBarrierPrice(in, d); math.Abs(got-BSM(in)) > 1e-12 {
		t.Errorf("touched knock-in = %v, want vanilla", got)
	}
	d.Type = types.BarrierOut
	if got := DoubleBarrierPrice(in, d); got != 0 {
		t.Errorf("touched knock-out = %v, want 0", got)
	}
}

func TestDoubleBinaryReferenceTable(t *testing.T) {
	in := Inputs{Spot: 100, Rate: 0.05, Dividend: 0.02, T: 0.25}
	d := DoubleBarrier{Upper: 120, Lower: 80, Type: types.BarrierOut}
	for _, tc := range []struct{ vol, want float64 }{{0.1, 9.8716}, {0.2, 8.9307}, {0.3, 6.3272}, {0.5, 1.9094}} {
		in.Vol = tc.vol
		if got := DoubleBinaryPrice(in, d, 10, types.PayAtExpiry); math.Abs(got-tc.want) > 1e-3 {
			t.Errorf("σ=%v: no-touch = %.5f, want %.4f", tc.vol, got, tc.want)
		}
	}
}

func TestDoubleBinaryHit(t *testing.T) {
	in := Inputs{Spot: 100, Rate: 0.05, Dividend: 0.02, Vol: 0.2, T: 0.25}
	d := DoubleBarrier{Upper: 120, Lower: 80, Type: types.BarrierIn}
	hit := DoubleBinaryPrice(in, d, 1, types.PayAtHit)
	expiry := DoubleBinaryPrice(in, d, 1, types.PayAtExpiry)
	if hit <= 0 || hit >= 1 {
		t.Fatalf("one-touch = %v, want within (0, 1)", hit)
	}
	if math.Abs(hit-expiry) > 0.02 {
		t.Errorf("one-touch %v far from knock-in at expiry %v", hit, expiry)
	}

	near := in
	near.Spot = 119.999
	if got := DoubleBinaryPrice(near, d, 1, types.PayAtHit); math.Abs(got-1) > 1e-3 {
		t.Errorf("next to barrier = %v, want ≈ 1", got)
	}
	near.Spot = 121
	if got := DoubleBinaryPrice(near, d, 7, types.PayAtHit); got != 7 {
		t.Errorf("touched = %v, want 7", got)
	}
}
