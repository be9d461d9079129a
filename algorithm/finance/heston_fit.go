package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/xerrors"
)

// HestonFit 历史收盘价上的 Heston 参数极大似然估计结果。
type HestonFit struct {
	Params        HestonParams
	SpotVol       float64 // 初始瞬时波动率
	LogLikelihood float64
}

// FitHeston 以 Atiya-Wall (2009) 的近似似然函数，从收盘价序列估计 (Beta, LongVol, Rho, VolVol, v0)。
// costOfCarry 为对数收益率的漂移，tradingDays 为年交易日数。
func FitHeston(closes []float64, costOfCarry, spotVol, tradingDays float64) (HestonFit, error) {
	returns := algomath.LogReturns(closes)
	if len(returns) < 2 {
		return HestonFit{}, xerrors.ErrEmptyData.With(nil, "heston fit needs at least 3 closes, got %d", len(closes))
	}
	if tradingDays <= 0 || spotVol <= 0 {
		return HestonFit{}, xerrors.ErrInvalidInput.With(nil, "trading days %v spot vol %v", tradingDays, spotVol)
	}

	ll := hestonLikelihood{returns: returns, mu: costOfCarry, dt: 1 / tradingDays}
	start := []float64{5, 0.25, 0, 0.5, spotVol * spotVol}
	step := []float64{0.01, 0.01, 0.01, 0.01, 0.01}
	res, err := algomath.NelderMead(ll.eval, start, step, true)
	if err != nil && res.X == nil {
		return HestonFit{}, xerrors.Wrap(err, xerrors.ErrInternal, "heston likelihood search failed")
	}
	if math.IsInf(res.Value, 0) || math.IsNaN(res.Value) {
		return HestonFit{}, xerrors.ErrNaNResult.With(err, "heston likelihood is not finite")
	}

	x := res.X
	return HestonFit{
		Params: HestonParams{
			Beta:    x[0],
			LongVol: x[1],
			Rho:     x[2],
			VolVol:  x[3],
		}.Normalized(),
		SpotVol:       math.Sqrt(x[4]),
		LogLikelihood: res.Value,
	}, nil
}

type hestonLikelihood struct {
	returns []float64
	mu      float64
	dt      float64
}

// eval 参数 x = (beta, longVol, rho, volVol, v0)，参数越界时返回 -Inf。
func (h hestonLikelihood) eval(x []float64) float64 {
	beta, longVol, rho, volVol, v0 := x[0], x[1], x[2], x[3], x[4]
	if beta <= 0 || longVol <= 0 || volVol <= 0 || v0 <= 0 || math.Abs(rho) >= 1 {
		return math.Inf(-1)
	}

	dt := h.dt
	kappa := 1 - beta*dt
	alpha := beta * longVol * longVol
	oneMinusRho2 := 1 - rho*rho
	denom := 2 * volVol * volVol * oneMinusRho2 * dt
	a := (kappa*kappa + rho*volVol*kappa*dt + volVol*volVol*dt*dt/4) / denom
	logD := math.Log(2 * math.Pi * volVol * math.Sqrt(oneMinusRho2))
	adt := alpha * dt

	bt := func(v, diff float64) float64 {
		return (v-adt)*(v-adt) - 2*rho*volVol*(v-adt)*diff + (volVol*diff)*(volVol*diff)/denom
	}

	loglik := -v0
	v := v0
	for _, r := range h.returns {
		diff := r - h.mu*dt
		b := -adt - rho*volVol*diff
		c := adt*adt + 2*rho*volVol*adt*diff + (volVol*diff)*(volVol*diff) - 2*v*v*alpha*volVol*volVol*oneMinusRho2*dt

		next := v
		if disc := b*b - c; disc > 0 {
			next = math.Sqrt(disc) - b
		} else if q := bt(v, diff) / a; q > 0 {
			next = math.Sqrt(q)
		}

		b2 := bt(next, diff)
		logDt := ((2*kappa+rho*volVol*dt)*(next-adt)-(2*rho*volVol*kappa+volVol*volVol*dt)*diff)/denom - logD
		loglik += logDt - math.Log(a*b2)/4 - 2*math.Sqrt(a*b2)
		v = next
	}
	if math.IsNaN(loglik) {
		return math.Inf(-1)
	}
	return loglik
}
