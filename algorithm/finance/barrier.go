package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/algorithm/types"
)

// Barrier 单障碍期权参数。Rebate 对敲出期权在触碰时支付，对敲入期权在到期未敲入时支付。
// VolAtBarrier 为障碍价处的波动率，非正时取期权波动率。
type Barrier struct {
	Level        float64                `json:"level"        validate:"gt=0"`
	Type         types.BarrierType      `json:"type"`
	Direction    types.BarrierDirection `json:"direction"`
	Rebate       float64                `json:"rebate"       validate:"gte=0"`
	VolAtBarrier float64                `json:"vol_at_barrier"`
}

// Touched 价格 s 是否已越过障碍。
func (b Barrier) Touched(s float64) bool { return b.Direction.Touched(s, b.Level) }

func (b Barrier) barrierVol(in Inputs) float64 {
	if b.VolAtBarrier > 0 {
		return b.VolAtBarrier
	}
	return in.Vol
}

// BarrierPrice 单障碍期权 Reiner and Rubinstein (1991) 价格。
// 敲出期权由敲入平价得到：out = vanilla - in，再加上回扣。
func BarrierPrice(in Inputs, b Barrier) float64 {
	knockIn := barrierIn(in, b)
	rebate := barrierRebate(in, b)
	if b.Type.IsIn() {
		return knockIn + rebate
	}
	return BSM(in) - knockIn + rebate
}

// barrierRebate 回扣按二元障碍期权定价，敲入敲出互换。
func barrierRebate(in Inputs, b Barrier) float64 {
	if b.Rebate <= 0 {
		return 0
	}
	bin := BinaryBarrier{
		Level:     b.Level,
		Type:      b.Type.Swap(),
		Direction: b.Direction,
		Cash:      b.Rebate,
		Timing:    types.PayAtHit,
	}
	if b.Type.IsIn() {
		bin.Timing = types.PayAtExpiry
	}
	rebateIn := in
	rebateIn.Vol = b.barrierVol(in)
	return BinaryBarrierPrice(rebateIn, bin)
}

func barrierIn(in Inputs, b Barrier) float64 {
	if b.Touched(in.Spot) {
		return BSM(in)
	}
	c := newBarrierTerms(in, b)
	if b.Direction.IsUp() == in.Type.IsCall() {
		return c.a() + c.d()*c.index()
	}
	return c.c() + c.b()*c.index()
}

type barrierTerms struct {
	in      Inputs
	h, volH float64
	phi     float64
}

func newBarrierTerms(in Inputs, b Barrier) barrierTerms {
	return barrierTerms{in: in, h: b.Level, volH: b.barrierVol(in), phi: in.Type.Index()}
}

func (c barrierTerms) sigmaT(vol float64) float64 { return vol * math.Sqrt(c.in.T) }

func (c barrierTerms) c1() float64 {
	a := 2*c.in.CostOfCarry()/(c.volH*c.volH) - 1
	return math.Pow(c.h/c.in.Spot, a)
}

func (c barrierTerms) c2() float64 {
	return c.c1() * math.Pow(c.h/c.in.Spot, 2*c.in.Vol/c.volH)
}

func (c barrierTerms) d1() float64 { return c.in.D1() }
func (c barrierTerms) d2() float64 { return c.in.D2() }

func (c barrierTerms) d3() float64 {
	return c.d1() + 2*math.Log(c.h/c.in.Spot)/c.sigmaT(c.volH)
}

func (c barrierTerms) d4() float64 {
	return c.d2() + 2*math.Log(c.h/c.in.Spot)/c.sigmaT(c.volH)
}

// atBarrier 以障碍价为执行价、障碍波动率为波动率的输入。
func (c barrierTerms) atBarrier() Inputs {
	out := c.in
	out.Strike = c.h
	out.Vol = c.volH
	return out
}

func (c barrierTerms) e2() float64 { return -c.atBarrier().D2() }
func (c barrierTerms) e1() float64 { return c.e2() - c.sigmaT(c.in.Vol) }

func (c barrierTerms) e4() float64 {
	mirrored := c.atBarrier()
	mirrored.Spot, mirrored.Strike = mirrored.Strike, mirrored.Spot
	return -mirrored.D2()
}

func (c barrierTerms) e3() float64 { return c.e4() - c.sigmaT(c.in.Vol) }

// index 执行价与障碍价的相对位置决定是否需要附加项。
func (c barrierTerms) index() float64 {
	short := (c.d1()+c.e1() < 0) == c.in.Type.IsCall()
	if short {
		return 0
	}
	return 1
}

func (c barrierTerms) spotLeg() float64 {
	return c.phi * c.in.DiscountDividend() * c.in.Spot
}

func (c barrierTerms) strikeLeg() float64 {
	return c.phi * c.in.DiscountRate() * c.in.Strike
}

func (c barrierTerms) cdfMin(d, e float64) float64 {
	return algomath.NormalCDF(math.Min(c.phi*d, c.phi*e))
}

func (c barrierTerms) cdfMinus(d, e float64) float64 {
	return algomath.NormalCDF(c.phi*d) - algomath.NormalCDF(c.phi*e)
}

func (c barrierTerms) a() float64 {
	return c.spotLeg()*c.cdfMin(c.d1(), -c.e1()) - c.strikeLeg()*c.cdfMin(c.d2(), -c.e2())
}

func (c barrierTerms) b() float64 {
	return c.spotLeg()*c.cdfMinus(c.d1(), -c.e1()) - c.strikeLeg()*c.cdfMinus(c.d2(), -c.e2())
}

func (c barrierTerms) c() float64 {
	return c.spotLeg()*c.c2()*c.cdfMin(c.d3(), -c.e3()) - c.strikeLeg()*c.c1()*c.cdfMin(c.d4(), -c.e4())
}

func (c barrierTerms) d() float64 {
	return c.spotLeg()*c.c2()*c.cdfMinus(c.d3(), -c.e3()) - c.strikeLeg()*c.c1()*c.cdfMinus(c.d4(), -c.e4())
}

// BinaryBarrier 二元障碍期权参数，没有执行价。
type BinaryBarrier struct {
	Level     float64                `json:"level"     validate:"gt=0"`
	Type      types.BarrierType      `json:"type"`
	Direction types.BarrierDirection `json:"direction"`
	Timing    types.PayoffTiming     `json:"timing"`
	Cash      float64                `json:"cash"      validate:"gt=0"`
}

// Touched 价格 s 是否已越过障碍。
func (b BinaryBarrier) Touched(s float64) bool { return b.Direction.Touched(s, b.Level) }

// BinaryBarrierPrice 二元障碍期权 Reiner and Rubinstein (1991) 价格。
// 触碰即付时不区分敲入敲出；到期支付的敲出期权为 cash·e^{-rT} 减去对应的敲入期权。
// in.Type 被忽略，方向由障碍方向决定。
func BinaryBarrierPrice(in Inputs, b BinaryBarrier) float64 {
	dr := in.DiscountRate()
	if b.Touched(in.Spot) {
		switch {
		case b.Timing == types.PayAtHit:
			return b.Cash
		case b.Type.IsIn():
			return b.Cash * dr
		default:
			return 0
		}
	}

	phi, eta := -1.0, 1.0
	if b.Direction.IsUp() {
		phi, eta = 1, -1
	}
	v2 := in.Vol * in.Vol
	st := in.SigmaT()
	mu := in.CostOfCarry()/v2 - 0.5
	lambda := math.Sqrt(mu*mu + 2*in.Rate/v2)
	ratio := b.Level / in.Spot

	if b.Timing == types.PayAtHit {
		z := math.Log(ratio)/st + lambda*st
		hit := math.Pow(ratio, mu+lambda)*algomath.NormalCDF(eta*z) +
			math.Pow(ratio, mu-lambda)*algomath.NormalCDF(eta*z-2*eta*lambda*st)
		return hit * b.Cash
	}

	x2 := math.Log(1/ratio)/st + (mu+1)*st
	y2 := math.Log(ratio)/st + (mu+1)*st
	b2 := dr * algomath.NormalCDF(phi*x2-phi*st)
	b4 := dr * math.Pow(ratio, 2*mu) * algomath.NormalCDF(eta*y2-eta*st)
	knockIn := (b2 + b4) * b.Cash
	if b.Type.IsIn() {
		return knockIn
	}
	return b.Cash*dr - knockIn
}
