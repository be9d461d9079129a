package underlying

import (
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/xerrors"
)

func TestFutureHasZeroCarry(t *testing.T) {
	f := NewFuture(100, 0.05).WithDividend(0.2)
	if f.Dividend() != 0.05 {
		t.Errorf("future dividend = %v, want 0.05", f.Dividend())
	}
	if f.CostOfCarry() != 0 {
		t.Errorf("future carry = %v, want 0", f.CostOfCarry())
	}
	if f.WithRate(0.03).Dividend() != 0.03 {
		t.Error("future dividend should follow the rate")
	}
	if f.FutureValue(2) != 100 {
		t.Errorf("future value = %v, want 100", f.FutureValue(2))
	}
}

func TestSpotValues(t *testing.T) {
	s := NewSpot(100, 0.1, 0.04)
	if got, want := s.FutureValue(1), 100*math.Exp(0.06); math.Abs(got-want) > 1e-12 {
		t.Errorf("FutureValue = %v, want %v", got, want)
	}
	sw := s.SwapRates()
	if sw.RiskFreeRate != 0.04 || sw.Dividend() != 0.1 {
		t.Errorf("SwapRates = %v", sw)
	}
	if s.RiskFreeRate != 0.1 {
		t.Error("SwapRates must not modify the receiver")
	}
}

func TestCurrencyReverse(t *testing.T) {
	c := NewCurrency(1.25, 0.03, 0.01)
	r := c.Reverse()
	if math.Abs(r.SpotPrice-0.8) > 1e-15 || r.RiskFreeRate != 0.01 || r.Dividend() != 0.03 {
		t.Errorf("Reverse = %v", r)
	}
	if back := r.Reverse(); math.Abs(back.SpotPrice-1.25) > 1e-15 || back.RiskFreeRate != 0.03 {
		t.Errorf("double reverse = %v", back)
	}
}

func TestValidate(t *testing.T) {
	if err := NewSpot(100, 0.1, 0).Validate(); err != nil {
		t.Errorf("valid spot rejected: %v", err)
	}
	if err := NewSpot(0, 0.1, 0).Validate(); !errors.Is(err, xerrors.ErrInvalidOption) {
		t.Errorf("zero spot: got %v, want ErrInvalidOption", err)
	}
}
