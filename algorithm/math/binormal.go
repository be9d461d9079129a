package math

import "math"

// 半区间 Gauss-Legendre 节点与权重，对称使用后分别为 6、12、20 点.
var (
	glPoints = [3][]float64{
		{-0.9324695142031522, -0.6612093864662647, -0.2386191860831970},
		{-0.9815606342467191, -0.9041172563704750, -0.7699026741943050, -0.5873179542866171,
			-0.3678314989981802, -0.1252334085114692},
		{-0.9931285991850949, -0.9639719272779138, -0.9122344282513259, -0.8391169718222188,
			-0.7463319064601508, -0.6360536807265150, -0.5108670019508271, -0.3737060887154196,
			-0.2277858511416451, -0.07652652113349733},
	}
	glWeights = [3][]float64{
		{0.1713244923791705, 0.3607615730481384, 0.4679139345726904},
		{0.04717533638651177, 0.1069393259953183, 0.1600783285433464, 0.2031674267230659,
			0.2334925365383547, 0.2491470458134029},
		{0.01761400713915212, 0.04060142980038694, 0.06267204833410906, 0.08327674157670475,
			0.1019301198172404, 0.1181945319615184, 0.1316886384491766, 0.1420961093183821,
			0.1491729864726037, 0.1527533871307259},
	}
)

// BinormalCDF 二元标准正态分布 P(X ≤ x, Y ≤ y)，相关系数 rho.
// 参考 Genz (2004), Numerical computation of rectangular bivariate and trivariate normal probabilities.
func BinormalCDF(x, y, rho float64) float64 {
	absR := math.Abs(rho)
	rule := 2
	switch {
	case absR < 0.3:
		rule = 0
	case absR < 0.75:
		rule = 1
	}
	p, w := glPoints[rule], glWeights[rule]

	h, k := -x, -y
	hk := h * k
	var bvn float64

	if absR < 0.925 {
		hs := (h*h + k*k) / 2
		asr := math.Asin(rho)
		for i := range p {
			sn := math.Sin(asr * (p[i] + 1) / 2)
			bvn += w[i] * math.Exp((sn*hk-hs)/(1-sn*sn))
			sn = math.Sin(asr * (1 - p[i]) / 2)
			bvn += w[i] * math.Exp((sn*hk-hs)/(1-sn*sn))
		}
		return bvn*asr/(4*math.Pi) + NormalCDF(-h)*NormalCDF(-k)
	}

	if rho < 0 {
		k = -k
		hk = -hk
	}
	if absR < 1 {
		ass := (1 - rho) * (1 + rho)
		a := math.Sqrt(ass)
		bs := (h - k) * (h - k)
		c := (4 - hk) / 8
		d := (12 - hk) / 16
		asr := -(bs/ass + hk) / 2
		bvn = a * math.Exp(asr) * (1 - c*(bs-ass)*(1-d*bs/5)/3 + c*d*ass*ass/5)
		if hk > -160 {
			b := math.Sqrt(bs)
			bvn -= math.Exp(-hk/2) * SqrtTwoPi * NormalCDF(-b/a) * b * (1 - c*bs*(1-d*bs/5)/3)
		}
		a /= 2
		for i := range p {
			xs := (a * (p[i] + 1)) * (a * (p[i] + 1))
			rs := math.Sqrt(1 - xs)
			bvn += a * w[i] * (math.Exp(-bs/(2*xs)-hk/(1+rs))/rs - math.Exp(asr)*(1+c*xs*(1+d*xs)))
			xs = ass * (1 - p[i]) * (1 - p[i]) / 4
			rs = math.Sqrt(1 - xs)
			bvn += a * w[i] * math.Exp(asr) * (math.Exp(-hk*xs/(2*(1+rs)*(1+rs)))/rs - (1 + c*xs*(1+d*xs)))
		}
		bvn = -bvn / (2 * math.Pi)
	}

	if rho > 0 {
		return bvn + NormalCDF(-math.Max(h, k))
	}
	bvn = -bvn
	if k > h {
		if h < 0 {
			bvn += NormalCDF(k) - NormalCDF(h)
		} else {
			bvn += NormalCDF(-h) - NormalCDF(-k)
		}
	}
	return bvn
}
