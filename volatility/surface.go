// Package volatility 提供波动率曲面查询与历史波动率估计.
// 曲面以 [期限][moneyness] 存储，moneyness 统一定义为 K/S.
package volatility

import (
	"math"
	"slices"

	algomath "github.com/wyfcoding/quant/algorithm/math"
)

// 默认节点.
var (
	DefaultTimes     = []float64{1.0 / 12, 2.0 / 12, 3.0 / 12, 6.0 / 12, 1}
	DefaultMoneyness = []float64{0.8, 0.9, 1.0, 1.1, 1.2}
)

// minKnots 每个维度至少需要的节点数.
const minKnots = 5

// Surface 波动率曲面. 创建后不再修改，平移等操作返回新曲面.
type Surface struct {
	Times     []float64
	Moneyness []float64
	Vols      [][]float64 // Vols[i][j] 对应 Times[i]、Moneyness[j]
	Interp    string
	Extrap    string
}

// NewSurface 以给定节点与网格创建曲面，网格被复制.
func NewSurface(times, moneyness []float64, vols [][]float64) *Surface {
	grid := make([][]float64, len(vols))
	for i, row := range vols {
		grid[i] = slices.Clone(row)
	}
	return &Surface{
		Times:     slices.Clone(times),
		Moneyness: slices.Clone(moneyness),
		Vols:      grid,
		Interp:    algomath.InterpNatural,
		Extrap:    algomath.ExtrapNatural,
	}
}

// Flat 以默认节点创建常数曲面.
func Flat(vol float64) *Surface {
	vols := make([][]float64, len(DefaultTimes))
	for i := range vols {
		vols[i] = make([]float64, len(DefaultMoneyness))
		for j := range vols[i] {
			vols[i][j] = vol
		}
	}
	return NewSurface(DefaultTimes, DefaultMoneyness, vols)
}

// Vol 在 (moneyness, t) 处插值. 曲面无效或插值失败时返回 NaN.
func (s *Surface) Vol(moneyness, t float64) float64 {
	if !s.Valid() {
		return math.NaN()
	}
	v, err := algomath.Interp2(s.Moneyness, s.Times, s.Vols, moneyness, t, s.interp(), s.extrap())
	if err != nil {
		return math.NaN()
	}
	return v
}

func (s *Surface) interp() string {
	if s.Interp == "" {
		return algomath.InterpNatural
	}
	return s.Interp
}

func (s *Surface) extrap() string {
	if s.Extrap == "" {
		return algomath.ExtrapNatural
	}
	return s.Extrap
}

// Valid 网格非空、每个维度至少 5 个节点且形状与节点一致.
func (s *Surface) Valid() bool {
	if s == nil || len(s.Vols) == 0 {
		return false
	}
	if len(s.Times) < minKnots || len(s.Moneyness) < minKnots {
		return false
	}
	if len(s.Vols) != len(s.Times) {
		return false
	}
	for _, row := range s.Vols {
		if len(row) != len(s.Moneyness) {
			return false
		}
	}
	return true
}

// Shifted 返回整体平移 delta 后的曲面.
func (s *Surface) Shifted(delta float64) *Surface {
	out := NewSurface(s.Times, s.Moneyness, s.Vols)
	out.Interp, out.Extrap = s.Interp, s.Extrap
	for _, row := range out.Vols {
		for j := range row {
			row[j] += delta
		}
	}
	return out
}

// Refreshed 返回在 (moneyness, t) 处与 vol 对齐的曲面；s 为空时返回常数曲面.
func (s *Surface) Refreshed(vol, moneyness, t float64) *Surface {
	if s == nil {
		return Flat(vol)
	}
	return s.Shifted(vol - s.Vol(moneyness, t))
}

// Moneyness 曲面查询使用的 K/S.
func Moneyness(strike, spot float64) float64 {
	return strike / spot
}
