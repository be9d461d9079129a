package math

import "math"

// MidDiff 对 v 做相对宽度 d 的中心差分，返回升序的 [下界, 上界].
// v 为 0 时使用绝对半宽 d/2.
func MidDiff(v, d float64) [2]float64 {
	half := d / 2
	if v == 0 {
		return [2]float64{-half, half}
	}
	return sorted(v*(1-half), v*(1+half))
}

// BackwardDiff 对 v 做相对宽度 d 的向后差分，返回升序的 [v(1-d), v].
func BackwardDiff(v, d float64) [2]float64 {
	if v == 0 {
		return [2]float64{-d, 0}
	}
	return sorted(v*(1-d), v)
}

func sorted(a, b float64) [2]float64 {
	if a > b {
		return [2]float64{b, a}
	}
	return [2]float64{a, b}
}

// MaxVector 逐元素取最大值，长度以较短者为准.
func MaxVector(a, b []float64) []float64 {
	n := min(len(a), len(b))
	z := make([]float64, n)
	for i := range n {
		z[i] = math.Max(a[i], b[i])
	}
	return z
}

// LogReturns 价格序列的对数收益率，不足两个价格时返回 [0].
func LogReturns(prices []float64) []float64 {
	if len(prices) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(prices)-1)
	for i := range out {
		out[i] = math.Log(prices[i+1] / prices[i])
	}
	return out
}

// IsFinite 判断值既非 NaN 也非 ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
