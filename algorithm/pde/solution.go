package pde

// Solution 逆向递推的结果：当前时刻与下一时间步的价格向量.
type Solution struct {
	Spots     []float64 // 价格节点
	Now       []float64 // t = 0 时各节点的期权价格
	Next      []float64 // t = Δt 时各节点的期权价格
	SpotIndex int
	TimeStep  float64
}

// Price 现价处的期权价格.
func (s *Solution) Price() float64 { return s.Now[s.SpotIndex] }

// Delta 现价两侧相邻节点的中心差分.
func (s *Solution) Delta() float64 {
	i := s.SpotIndex
	return (s.Now[i+1] - s.Now[i-1]) / (s.Spots[i+1] - s.Spots[i-1])
}

// Gamma 以 ±2 节点的单侧 delta 之差除以 ±1 节点间距.
func (s *Solution) Gamma() float64 {
	i := s.SpotIndex
	up := (s.Now[i+2] - s.Now[i]) / (s.Spots[i+2] - s.Spots[i])
	down := (s.Now[i] - s.Now[i-2]) / (s.Spots[i] - s.Spots[i-2])
	return (up - down) / (s.Spots[i+1] - s.Spots[i-1])
}

// Theta 每日时间价值 (V(Δt) - V(0))/Δt/365.
func (s *Solution) Theta() float64 {
	i := s.SpotIndex
	return (s.Next[i] - s.Now[i]) / s.TimeStep / 365
}
