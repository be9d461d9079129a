package pde

import (
	"math"

	"gonum.org/v1/gonum/mat"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/xerrors"
)

// coefficients 第 j 行的 a_j、b_j、c_j：
//
//	a_j = μjΔt/2 - σ_j²j²Δt/2
//	b_j = 1 + σ_j²j²Δt + rΔt
//	c_j = -μjΔt/2 - σ_j²j²Δt/2
func coefficients(vols []float64, mu, r, dt float64) (a, b, c []float64) {
	n := len(vols)
	a, b, c = make([]float64, n), make([]float64, n), make([]float64, n)
	for j := range n {
		fj := float64(j)
		diffusion := vols[j] * vols[j] * fj * fj * dt
		a[j] = mu*fj*dt/2 - diffusion/2
		b[j] = 1 + diffusion + r*dt
		c[j] = -mu*fj*dt/2 - diffusion/2
	}
	return a, b, c
}

// rowVols 各价格节点的波动率. 局部波动率模式下按 (K/S_j, T) 查询曲面，moneyness 限制在曲面节点范围内.
func rowVols(c option.Contract, spots []float64, localVol bool) []float64 {
	vols := make([]float64, len(spots))
	if !localVol || !c.HasSurface() {
		for j := range vols {
			vols[j] = c.Vanilla.Vol
		}
		return vols
	}
	knots := c.Surface.Moneyness
	lo, hi := knots[0], knots[len(knots)-1]
	for j, s := range spots {
		m := hi
		if s > 0 {
			m = math.Min(math.Max(c.Vanilla.Strike/s, lo), hi)
		}
		vols[j] = c.Surface.Vol(m, c.Vanilla.Maturity)
	}
	return vols
}

// Solve 从到期收益逆向递推到当前时刻，可提前行权的期权每步与收益取大.
func Solve(o option.FiniteDifferencePricer, g Grid) (*Solution, error) {
	g = g.Normalized()
	c := o.Contract()
	if err := o.Validate(); err != nil {
		return nil, err
	}

	spots := g.Spots(c.Underlying.SpotPrice)
	dt := g.TimeStep(c.Vanilla.Maturity)
	a, b, cc := coefficients(rowVols(c, spots, g.LocalVol), c.Underlying.CostOfCarry(), c.Underlying.RiskFreeRate, dt)
	inv, err := algomath.Tridiagonal(a, b, cc).Inverse()
	if err != nil {
		return nil, xerrors.ErrSingular.With(err, "finite difference operator")
	}
	op := inv.Dense()

	exercise := o.Payoff(spots)
	early := option.EarlyExercise(o)

	current := mat.NewVecDense(len(spots), append([]float64(nil), exercise...))
	next := mat.NewVecDense(len(spots), nil)
	var second []float64
	for step := g.TimePoints - 2; step >= 0; step-- {
		next.MulVec(op, current)
		if early {
			floorWith(next.RawVector().Data, exercise)
		}
		current, next = next, current
		if step == 1 {
			second = append([]float64(nil), current.RawVector().Data...)
		}
	}

	sol := &Solution{
		Spots:     spots,
		Now:       append([]float64(nil), current.RawVector().Data...),
		Next:      second,
		SpotIndex: g.SpotIndex(),
		TimeStep:  dt,
	}
	return sol, nil
}

func floorWith(v, floor []float64) {
	copy(v, algomath.MaxVector(v, floor))
}

// EuropeanError 同一合约下欧式期权解析价与有限差分价之差，衡量网格误差.
func EuropeanError(c option.Contract, g Grid) (float64, error) {
	eu := option.NewEuropean(c)
	sol, err := Solve(eu, g)
	if err != nil {
		return math.NaN(), err
	}
	analytic, err := eu.Methods()[option.MethodBSM]()
	if err != nil {
		return math.NaN(), err
	}
	return analytic - sol.Price(), nil
}
