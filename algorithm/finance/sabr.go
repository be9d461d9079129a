package finance

import (
	"math"

	algomath "github.com/wyfcoding/quant/algorithm/math"
)

// SABRParams SABR 模型参数 (Hagan et al. 2002)：
//
//	dF = α·F^Beta dZ,  dα = VolVol·α dW,  E[dZ dW] = Rho dt
//
// α 由平值波动率反解 (West 2005)。
type SABRParams struct {
	Beta   float64 `json:"beta"`
	VolVol float64 `json:"vol_vol"`
	Rho    float64 `json:"rho"`
}

// sabrPoly 平值方程 constant + linear·α + quadratic·α² + cubic·α³ = 0 的系数。
func sabrPoly(s, t, atmVol float64, p SABRParams) [4]float64 {
	oneMinus := 1 - p.Beta
	return [4]float64{
		-atmVol * math.Pow(s, oneMinus),
		1 + (2-3*p.Rho*p.Rho)*p.VolVol*p.VolVol*t/24,
		p.Rho * p.Beta * p.VolVol * t / (4 * math.Pow(s, oneMinus)),
		oneMinus * oneMinus * t / (24 * math.Pow(s, 2-2*p.Beta)),
	}
}

// SABRAlpha 返回平值方程最小的正实根，无解时返回 0。
func SABRAlpha(s, t, atmVol float64, p SABRParams) float64 {
	c := sabrPoly(s, t, atmVol, p)
	switch {
	case c[3] != 0:
		return algomath.SmallestPositiveReal(algomath.CubicRoots(c[0], c[1], c[2], c[3]))
	case c[2] != 0:
		return algomath.SmallestPositiveReal(algomath.QuadraticRoots(c[0], c[1], c[2]))
	case c[1] != 0:
		return math.Max(-c[0]/c[1], 0)
	default:
		return 0
	}
}

// SABRVol 返回执行价 in.Strike 处的 SABR 隐含波动率。
// atmVol 非正时使用 in.Vol；α 无正根时返回 in.Vol。
func SABRVol(in Inputs, p SABRParams, atmVol float64) float64 {
	if !(atmVol > 0) {
		atmVol = in.Vol
	}
	s, k, t := in.Spot, in.Strike, in.T
	alpha := SABRAlpha(s, t, atmVol, p)
	if alpha == 0 {
		return in.Vol
	}

	oneMinus := 1 - p.Beta
	logSK := math.Log(s / k)
	scale := math.Pow(s*k, oneMinus/2)

	ratio := 1.0
	z := p.VolVol / alpha * scale * logSK
	if math.Abs(z) > 1e-12 {
		xz := math.Log((math.Sqrt(1-2*p.Rho*z+z*z) + z - p.Rho) / (1 - p.Rho))
		ratio = z / xz
	}
	x := oneMinus * logSK
	denominator := scale * (1 + x*x/24 + math.Pow(x, 4)/1920)

	c := sabrPoly(s, t, atmVol, p)
	series := alpha*c[1] + alpha*alpha*c[2] + alpha*alpha*alpha*c[3]
	return ratio / denominator * series
}

// SABR 以 SABR 波动率代入 BSM 的价格。
func SABR(in Inputs, p SABRParams, atmVol float64) float64 {
	in.Vol = SABRVol(in, p, atmVol)
	return BSM(in)
}
