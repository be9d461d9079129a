// Package sim 以几何布朗运动路径对期权做蒙特卡洛定价.
//
// 路径按批次切分，每批抽取一个标准正态矩阵，提交到注入的有界 worker 池并发计算.
// 希腊值在同一批随机数上对基准与扰动后的合约重新定价 (common random numbers).
package sim

import (
	"github.com/wyfcoding/quant/config"
)

// 参数默认值与上下限.
const (
	DefaultNodes           = 500
	DefaultPathSize        = 10000
	DefaultErrorMultiplier = 3
	DefaultBatches         = 50
	maxNodes               = 10000
	maxPathSize            = 500000
)

// Params 蒙特卡洛参数. Nodes 不含初始价格，路径长度为 Nodes+1.
type Params struct {
	Nodes           int
	PathSize        int
	ErrorMultiplier float64
	Batches         int
	Seed            int64 // 0 表示按时间播种
	LocalVol        bool
}

// DefaultParams 返回 500 个节点、10000 条路径、50 个批次的参数.
func DefaultParams() Params {
	return Params{
		Nodes:           DefaultNodes,
		PathSize:        DefaultPathSize,
		ErrorMultiplier: DefaultErrorMultiplier,
		Batches:         DefaultBatches,
	}
}

// ParamsFromConfig 由配置构造参数.
func ParamsFromConfig(c config.MonteCarloConfig) Params {
	return Params{
		Nodes:           c.Nodes,
		PathSize:        c.PathSize,
		ErrorMultiplier: c.ErrorMultiplier,
		Batches:         c.Batches,
		Seed:            c.Seed,
		LocalVol:        c.LocalVol,
	}.Normalized()
}

// Normalized 节点数限制在 [1, 10000]，路径数限制在 [1, 500000]，批次数不超过路径数.
func (p Params) Normalized() Params {
	p.Nodes = min(max(p.Nodes, 1), maxNodes)
	p.PathSize = min(max(p.PathSize, 1), maxPathSize)
	if p.ErrorMultiplier <= 0 {
		p.ErrorMultiplier = DefaultErrorMultiplier
	}
	if p.Batches <= 0 {
		p.Batches = DefaultBatches
	}
	p.Batches = min(p.Batches, p.PathSize)
	return p
}

// batchSizes 把路径数均分到各批次，余数分给靠前的批次.
func (p Params) batchSizes() []int {
	sizes := make([]int, p.Batches)
	base, rem := p.PathSize/p.Batches, p.PathSize%p.Batches
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}
