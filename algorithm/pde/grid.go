// Package pde 以全隐式有限差分求解单资产期权的 Black-Scholes 方程.
//
// 价格网格为 S_i = i·S/N (i = 0..5N)，现价位于下标 N；时间网格从 0 到 T 等分.
// 每一步求解三对角系统 A·V_t = V_{t+Δt}，A 只求逆一次.
package pde

import (
	"github.com/wyfcoding/quant/config"
)

// 默认网格.
const (
	DefaultTimePoints       = 501
	DefaultLowerPricePoints = 100
	// priceRange 价格网格上界为现价的倍数.
	priceRange = 5
	minPoints  = 3
)

// Grid 有限差分网格参数.
type Grid struct {
	TimePoints       int  // 时间点数，含 0 与 T
	LowerPricePoints int  // [0, S] 区间的价格步数
	LocalVol         bool // 按曲面逐行取波动率
}

// DefaultGrid 返回 501 个时间点、100 个下方价格步的网格.
func DefaultGrid() Grid {
	return Grid{TimePoints: DefaultTimePoints, LowerPricePoints: DefaultLowerPricePoints}
}

// GridFromConfig 由配置构造网格.
func GridFromConfig(c config.FiniteDifferenceConfig) Grid {
	return Grid{TimePoints: c.TimePoints, LowerPricePoints: c.LowerPricePoints, LocalVol: c.LocalVol}.Normalized()
}

// Normalized 零值取默认值，且每个维度至少 3 个点.
func (g Grid) Normalized() Grid {
	if g.TimePoints <= 0 {
		g.TimePoints = DefaultTimePoints
	}
	if g.LowerPricePoints <= 0 {
		g.LowerPricePoints = DefaultLowerPricePoints
	}
	g.TimePoints = max(g.TimePoints, minPoints)
	g.LowerPricePoints = max(g.LowerPricePoints, minPoints)
	return g
}

// SpotIndex 现价在价格网格中的下标.
func (g Grid) SpotIndex() int { return g.LowerPricePoints }

// Spots 价格节点 S - (S/N)(N-i)，i ∈ [0, 5N].
func (g Grid) Spots(spot float64) []float64 {
	n := g.LowerPricePoints
	ds := spot / float64(n)
	out := make([]float64, n*priceRange+1)
	for i := range out {
		out[i] = spot - ds*float64(n-i)
	}
	return out
}

// TimeStep Δt = T/(TimePoints-1).
func (g Grid) TimeStep(t float64) float64 {
	return t / float64(g.TimePoints-1)
}
