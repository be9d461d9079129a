package finance

import (
	"math"
	"math/cmplx"

	"github.com/wyfcoding/quant/algorithm/types"
)

const (
	defaultHestonBlocks   = 10000
	maxHestonBlocks       = 1000000
	defaultHestonAccuracy = 1e-4
	minHestonAccuracy     = 1e-6
	// 积分下限处被积函数以极小正数代替 0，避免 1/(iφ) 奇点。
	hestonOrigin = 1e-8
)

// HestonParams Heston (1993) 随机波动率模型参数：
//
//	d ln S = (r - q) dt + v dW1
//	d v²   = Beta·(LongVol² - v²) dt + VolVol·v dW2,  E[dW1 dW2] = Rho dt
//
// 初始方差取期权波动率的平方。Blocks 与 Accuracy 控制梯形积分。
type HestonParams struct {
	Beta     float64 `json:"beta"`
	LongVol  float64 `json:"long_vol"`
	Rho      float64 `json:"rho"`
	VolVol   float64 `json:"vol_vol"`
	Blocks   int     `json:"blocks"`
	Accuracy float64 `json:"accuracy"`
}

// Normalized 返回积分参数夹紧后的副本：Blocks 默认 10000、上限 1e6，Accuracy 默认 1e-4、下限 1e-6。
func (p HestonParams) Normalized() HestonParams {
	if p.Blocks <= 0 {
		p.Blocks = defaultHestonBlocks
	}
	p.Blocks = min(p.Blocks, maxHestonBlocks)
	if p.Accuracy <= 0 {
		p.Accuracy = defaultHestonAccuracy
	}
	p.Accuracy = math.Max(p.Accuracy, minHestonAccuracy)
	return p
}

// Heston 半解析 Heston 价格。积分结果为 NaN 或不高于看涨下界时退回 BSM。
func Heston(in Inputs, p HestonParams) float64 {
	p = p.Normalized()
	h := hestonIntegrand{in: in, p: p}
	upper := math.Max(100, 10/in.SigmaT())
	integral := trapezium(h.eval, 0, upper, p.Accuracy, p.Blocks) / math.Pi

	call := 0.5*in.Spot*in.DiscountDividend() - 0.5*in.Strike*in.DiscountRate() + integral
	if math.IsNaN(call) || call <= in.CallLowerBound() {
		c := in
		c.Type = types.OptionTypeCall
		call = BSM(c)
	}
	return fromCall(in, call)
}

type hestonIntegrand struct {
	in Inputs
	p  HestonParams
}

func (h hestonIntegrand) u(j int) float64 {
	if j == 1 {
		return 0.5
	}
	return -0.5
}

func (h hestonIntegrand) b(j int) float64 {
	if j == 1 {
		return h.p.Beta - h.p.Rho*h.p.VolVol
	}
	return h.p.Beta
}

// cd 返回特征函数指数中的 C(φ) 与 D(φ)。
func (h hestonIntegrand) cd(phi float64, j int) (complex128, complex128) {
	iphi := complex(0, phi)
	sigma := h.p.VolVol
	t := h.in.T
	a := h.p.Beta * h.p.LongVol * h.p.LongVol
	b := h.b(j)
	u := h.u(j)
	drift := iphi * complex(h.in.CostOfCarry()*t, 0)

	if sigma == 0 {
		decay := (1 - math.Exp(-b*t)) / b
		base := iphi*complex(u, 0) - complex(phi*phi/2, 0)
		d := base * complex(decay, 0)
		c := drift + base*complex(a/b*(t-decay), 0)
		return c, d
	}

	rsi := iphi * complex(sigma*h.p.Rho, 0)
	bc := complex(b, 0)
	disc := cmplx.Sqrt((rsi-bc)*(rsi-bc) - complex(sigma*sigma, 0)*(iphi*complex(2*u, 0)-complex(phi*phi, 0)))
	plus := bc - rsi + disc
	g := plus / (bc - rsi - disc)
	edt := cmplx.Exp(disc * complex(t, 0))

	d := plus / complex(sigma*sigma, 0) * (1 - edt) / (1 - g*edt)
	c := drift + complex(a/(sigma*sigma), 0)*(plus*complex(t, 0)-2*cmplx.Log((1-g*edt)/(1-g)))
	return c, d
}

func (h hestonIntegrand) eval(phi float64) float64 {
	if phi == 0 {
		phi = hestonOrigin
	}
	in := h.in
	lnS, lnK := math.Log(in.Spot), math.Log(in.Strike)
	v := complex(in.Vol*in.Vol, 0)
	iphi := complex(0, phi)

	c1, d1 := h.cd(phi, 1)
	c2, d2 := h.cd(phi, 2)
	p1 := cmplx.Exp(c1+d1*v+iphi*complex(lnS, 0)) * complex(math.Exp(lnS-in.Dividend*in.T), 0)
	p2 := cmplx.Exp(c2+d2*v+iphi*complex(lnS, 0)) * complex(math.Exp(lnK-in.Rate*in.T), 0)
	return real((p1 - p2) * cmplx.Exp(-iphi*complex(lnK, 0)) / iphi)
}

// trapezium 逐次加倍区间数的梯形积分，相邻两次结果的相对变化小于 accuracy
// 或区间数超过 maxIntervals 时停止。
func trapezium(f func(float64) float64, a, b, accuracy float64, maxIntervals int) float64 {
	const minIntervals = 64
	width := b - a
	sum := (f(a) + f(b)) / 2
	n := 1
	prev := sum * width
	for {
		h := width / float64(n)
		for i := range n {
			sum += f(a + (float64(i)+0.5)*h)
		}
		n *= 2
		cur := sum * width / float64(n)
		if n >= minIntervals && math.Abs(cur-prev) <= accuracy*math.Abs(cur) {
			return cur
		}
		if 2*n > maxIntervals {
			return cur
		}
		prev = cur
	}
}
