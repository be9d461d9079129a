package math

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// MeanStdErr 返回样本均值与均值的标准误差 s/√n.
func MeanStdErr(x []float64) (mean, stderr float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		return mean, 0
	}
	return mean, std / math.Sqrt(float64(len(x)))
}

// Quantile 线性插值分位数 (R type 7)，q 超出 [0, 1] 时取端点. 不修改输入.
func Quantile(x []float64, q float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := slices.Clone(x)
	slices.Sort(s)
	n := len(s)
	if q <= 0 {
		return s[0]
	}
	if q >= 1 {
		return s[n-1]
	}
	idx := q * float64(n-1)
	lo := math.Floor(idx)
	hi := math.Ceil(idx)
	if lo == hi {
		return s[int(lo)]
	}
	w := hi - idx
	return w*s[int(lo)] + (1-w)*s[int(hi)]
}

// AnnualizedVol 对数收益率的年化标准差.
func AnnualizedVol(prices []float64, periodsPerYear float64) float64 {
	r := LogReturns(prices)
	if len(r) < 2 {
		return math.NaN()
	}
	return stat.StdDev(r, nil) * math.Sqrt(periodsPerYear)
}

// Correlation 两组价格对数收益率的相关系数.
func Correlation(x, y []float64) float64 {
	rx, ry := LogReturns(x), LogReturns(y)
	if len(rx) != len(ry) || len(rx) < 2 {
		return math.NaN()
	}
	return stat.Correlation(rx, ry, nil)
}
