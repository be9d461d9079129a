// Package math 提供定价内核所需的数值基础：正态分布、样条插值、求根与单纯形优化。
package math

import "math"

const (
	// Eps 是半个机器精度，用作零值判断与最小扰动的基准.
	Eps = 2.220446049250313e-16 / 2
	// SqrtTwoPi = √(2π).
	SqrtTwoPi = 2.5066282746310002
	// normalThreshold = N^-1(0.75).
	normalThreshold = 0.67448975019608171
)

// Cody (1993) ALGORITHM 715 中三个区间的有理逼近系数.
var (
	codyA = []float64{2.2352520354606839287, 161.02823106855587881, 1067.6894854603709582, 18154.981253343561249, 0.065682337918207449113}
	codyB = []float64{47.20258190468824187, 976.09855173777669322, 10260.932208618978205, 45507.789335026729956}
	codyC = []float64{0.39894151208813466764, 8.8831497943883759412, 93.506656132177855979, 597.27027639480026226,
		2494.5375852903726711, 6848.1904505362823326, 11602.651437647350124, 9842.7148383839780218, 1.0765576773720192317e-8}
	codyD = []float64{22.266688044328115691, 235.38790178262499861, 1519.377599407554805, 6485.558298266760755,
		18615.571640885098091, 34900.952721145977266, 38912.003286093271411, 19685.429676859990727}
	codyP = []float64{0.21589853405795699, 0.1274011611602473639, 0.022235277870649807, 0.001421619193227893466,
		2.9112874951168792e-5, 0.02307344176494017303}
	codyQ = []float64{1.28426009614491121, 0.468238212480865118, 0.0659881378689285515, 0.00378239633202758244,
		7.29751555083966205e-5}
)

// rollUp 计算 ((a_n·x + a_0)·x + a_1)... / ((x + b_0)·x + b_1)...，a 比 b 多一个系数.
func rollUp(a, b []float64, x float64) float64 {
	n := len(b)
	num := x * a[n]
	den := x
	for i := range n {
		num = (num + a[i]) * x
		den = (den + b[i]) * x
	}
	return num / den
}

// expHalfSquare 以 trunc(16x)/16 拆分计算 exp(-x²/2)，减少大 |x| 时的舍入误差.
func expHalfSquare(x float64) float64 {
	xsq := math.Trunc(16*x) / 16
	del := (x - xsq) * (x + xsq)
	return math.Exp(-0.5*xsq*xsq) * math.Exp(-0.5*del)
}

// NormalCDF 标准正态分布累积分布函数 Φ(x).
func NormalCDF(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	if math.IsInf(x, 0) {
		if x > 0 {
			return 1
		}
		return 0
	}

	y := math.Abs(x)
	switch {
	case y <= normalThreshold:
		if y <= Eps {
			return 0.5
		}
		return x*rollUp(codyA, codyB, x*x) + 0.5
	case y <= math.Sqrt(32):
		res := expHalfSquare(y) * rollUp(codyC, codyD, y)
		if x > 0 {
			res = 1 - res
		}
		return res
	default:
		xsq := 1 / (x * x)
		res := xsq * rollUp(codyP, codyQ, xsq)
		res = (1/SqrtTwoPi - res) / y
		res *= expHalfSquare(x)
		if x > 0 {
			res = 1 - res
		}
		if res < smallestNormal {
			return 0
		}
		return res
	}
}

// smallestNormal 最小正规格化浮点数.
const smallestNormal = 2.2250738585072014e-308

// NormalPDF 标准正态分布密度函数.
func NormalPDF(x float64) float64 {
	return math.Exp(-x*x/2) / SqrtTwoPi
}
