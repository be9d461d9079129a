package sim

import (
	"math"

	"github.com/wyfcoding/quant/option"
)

// Path 由标准正态增量 z 生成价格路径：
//
//	S[i+1] = S[i]·exp(z_i·σ√Δt + (r - q - σ²/2)Δt),  Δt = T/len(z)
//
// localVol 且曲面有效时 σ 取 surface(K/S[i], T - t_i). dst 长度足够时复用.
func Path(c option.Contract, z []float64, localVol bool, dst []float64) []float64 {
	n := len(z)
	if cap(dst) < n+1 {
		dst = make([]float64, n+1)
	}
	path := dst[:n+1]

	t := c.Vanilla.Maturity
	dt := t / float64(n)
	sqrtDt := math.Sqrt(dt)
	carry := c.Underlying.CostOfCarry()
	vol := c.Vanilla.Vol
	local := localVol && c.HasSurface()

	path[0] = c.Underlying.SpotPrice
	drift := (carry - 0.5*vol*vol) * dt
	diffusion := vol * sqrtDt
	for i, zi := range z {
		if local {
			vol = c.LocalVol(path[i], t-float64(i)*dt)
			drift = (carry - 0.5*vol*vol) * dt
			diffusion = vol * sqrtDt
		}
		path[i+1] = path[i] * math.Exp(zi*diffusion+drift)
	}
	return path
}
