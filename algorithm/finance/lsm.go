package finance

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	algomath "github.com/wyfcoding/quant/algorithm/math"
	"github.com/wyfcoding/quant/xerrors"
)

// LSMPricer 实现了 Longstaff-Schwartz (LSM) 最小二乘蒙特卡洛美式期权定价.
type LSMPricer struct {
	Degree int    // 回归多项式的阶数
	Paths  int    // 模拟路径数
	Steps  int    // 时间步数
	Seed   uint64 // 随机数种子，相同种子给出相同价格
}

func NewLSMPricer(degree, paths, steps int, seed uint64) *LSMPricer {
	if degree <= 0 {
		degree = 2
	}
	return &LSMPricer{Degree: degree, Paths: paths, Steps: steps, Seed: seed}
}

// Price 计算美式期权现值.
func (p *LSMPricer) Price(in Inputs) (float64, error) {
	if p.Paths <= 0 || p.Steps <= 0 {
		return 0, xerrors.ErrInvalidInput.With(nil, "lsm paths %d steps %d", p.Paths, p.Steps)
	}
	dt := in.T / float64(p.Steps)
	df := math.Exp(-in.Rate * dt)
	drift := (in.CostOfCarry() - 0.5*in.Vol*in.Vol) * dt
	diffusion := in.Vol * math.Sqrt(dt)

	// 1. 生成路径
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(p.Seed)}
	paths := make([][]float64, p.Paths)
	for i := range paths {
		paths[i] = make([]float64, p.Steps+1)
		paths[i][0] = in.Spot
		for j := 1; j <= p.Steps; j++ {
			paths[i][j] = paths[i][j-1] * math.Exp(drift+diffusion*normal.Rand())
		}
	}

	// 2. 初始化末端收益
	cashFlows := make([]float64, p.Paths)
	for i := range cashFlows {
		cashFlows[i] = p.payoff(in, paths[i][p.Steps])
	}

	// 3. 反向回归，回归变量按 S/K 缩放以保持法方程良态
	for t := p.Steps - 1; t > 0; t-- {
		for i := range cashFlows {
			cashFlows[i] *= df
		}

		var xData, yData []float64
		var indices []int
		for i := range p.Paths {
			s := paths[i][t]
			if p.payoff(in, s) > 0 { // 仅考虑价内路径
				xData = append(xData, s/in.Strike)
				yData = append(yData, cashFlows[i])
				indices = append(indices, i)
			}
		}
		if len(indices) <= p.Degree+1 {
			continue
		}

		coeffs, err := p.regress(xData, yData)
		if err != nil {
			return 0, xerrors.Wrap(err, xerrors.ErrInternal, "lsm regression failed")
		}

		// 比较行权价值与预测的延续价值
		for idx, i := range indices {
			iv := p.payoff(in, paths[i][t])
			var cv float64
			for d := p.Degree; d >= 0; d-- {
				cv = cv*xData[idx] + coeffs[d]
			}
			if iv >= cv {
				cashFlows[i] = iv
			}
		}
	}

	var total float64
	for _, cf := range cashFlows {
		total += cf
	}
	return total / float64(p.Paths) * df, nil
}

func (p *LSMPricer) payoff(in Inputs, s float64) float64 {
	return math.Max(0, in.Type.Index()*(s-in.Strike))
}

func (p *LSMPricer) regress(x, y []float64) ([]float64, error) {
	n := len(x)
	m := p.Degree + 1

	// A 是 Vandermonde 矩阵 [n x m]
	A := algomath.NewMatrix(n, m)
	for i := range x {
		for j := range m {
			A.Set(i, j, math.Pow(x[i], float64(j)))
		}
	}

	AT := A.Transpose()
	ATA, err := AT.Multiply(A)
	if err != nil {
		return nil, err
	}
	ATy, err := AT.MultiplyVector(y)
	if err != nil {
		return nil, err
	}
	return ATA.SolveCholesky(ATy)
}
