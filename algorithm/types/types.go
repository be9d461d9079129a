// Package types 定义期权定价共用的枚举类型.
package types

// OptionType 定义期权类型。
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// IsCall 是否为看涨期权。
func (t OptionType) IsCall() bool { return t == OptionTypeCall }

// Index 看涨为 +1，看跌为 -1。
func (t OptionType) Index() float64 {
	if t == OptionTypeCall {
		return 1
	}
	return -1
}

// Flip 返回相反方向的期权类型。
func (t OptionType) Flip() OptionType {
	if t == OptionTypeCall {
		return OptionTypePut
	}
	return OptionTypeCall
}

// Valid 是否为已知类型。
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// BarrierType 敲入或敲出。
type BarrierType string

const (
	BarrierIn  BarrierType = "IN"
	BarrierOut BarrierType = "OUT"
)

// IsIn 是否为敲入。
func (b BarrierType) IsIn() bool { return b == BarrierIn }

// Swap 敲入敲出互换。
func (b BarrierType) Swap() BarrierType {
	if b == BarrierIn {
		return BarrierOut
	}
	return BarrierIn
}

// Valid 是否为已知类型。
func (b BarrierType) Valid() bool { return b == BarrierIn || b == BarrierOut }

// BarrierDirection 障碍方向。
type BarrierDirection string

const (
	BarrierUp   BarrierDirection = "UP"
	BarrierDown BarrierDirection = "DOWN"
)

// IsUp 是否为向上障碍。
func (d BarrierDirection) IsUp() bool { return d == BarrierUp }

// Valid 是否为已知方向。
func (d BarrierDirection) Valid() bool { return d == BarrierUp || d == BarrierDown }

// Touched 价格 s 是否已越过障碍 h。
func (d BarrierDirection) Touched(s, h float64) bool {
	if d == BarrierUp {
		return s > h
	}
	return s < h
}

// PayoffTiming 二元障碍的给付时间。
type PayoffTiming string

const (
	PayAtHit    PayoffTiming = "HIT"    // 触碰时给付
	PayAtExpiry PayoffTiming = "EXPIRE" // 到期给付
)

// Valid 是否为已知给付时间。
func (p PayoffTiming) Valid() bool { return p == PayAtHit || p == PayAtExpiry }
