// Package calculator 在期权之上计算价格、希腊值与隐含波动率.
// 计算器只持有配置与依赖，每次调用独立求值，结果以 (值, 状态) 返回而不会 panic.
package calculator

import (
	"math"

	"github.com/wyfcoding/quant/xerrors"
)

// Status 一次计算的结果状态.
type Status int

const (
	NotCalculated       Status = -1
	Normal              Status = 0
	MethodNotFound      Status = 1
	CalculationFailed   Status = 2
	ReachedMaxIteration Status = 3
	ResultIsNaN         Status = 4
	UnsupportedMethod   Status = 5
)

func (s Status) String() string {
	switch s {
	case NotCalculated:
		return "not_calculated"
	case Normal:
		return "normal"
	case MethodNotFound:
		return "method_not_found"
	case CalculationFailed:
		return "calculation_failed"
	case ReachedMaxIteration:
		return "reached_max_iteration"
	case ResultIsNaN:
		return "result_is_nan"
	case UnsupportedMethod:
		return "unsupported_method"
	default:
		return "unknown"
	}
}

// OK 结果是否可用. 达到迭代上限的结果附带当前估计，但不视为可用.
func (s Status) OK() bool { return s == Normal }

// Err 返回与状态对应的哨兵错误，Normal 返回 nil.
func (s Status) Err() error {
	switch s {
	case Normal:
		return nil
	case MethodNotFound:
		return xerrors.ErrMethodNotFound
	case ReachedMaxIteration:
		return xerrors.ErrMaxIteration
	case ResultIsNaN:
		return xerrors.ErrNaNResult
	case UnsupportedMethod:
		return xerrors.ErrUnsupported
	default:
		return xerrors.ErrCalculation
	}
}

// statusOf 按错误链上第一个 *xerrors.Error 的业务码判定状态.
func statusOf(err error) Status {
	if err == nil {
		return Normal
	}
	e, ok := xerrors.FromError(err)
	if !ok {
		return CalculationFailed
	}
	switch e.Code {
	case xerrors.ErrMethodNotFound.Code:
		return MethodNotFound
	case xerrors.ErrUnsupported.Code:
		return UnsupportedMethod
	case xerrors.ErrNaNResult.Code:
		return ResultIsNaN
	case xerrors.ErrMaxIteration.Code:
		return ReachedMaxIteration
	default:
		return CalculationFailed
	}
}

// Result 计算结果.
type Result struct {
	Value   float64
	Status  Status
	Err     error
	MCError float64 // 蒙特卡洛误差界，其他计算器为 0
}

// newResult 由计算值与错误构造结果. 非有限值视为 NaN 结果；除迭代上限外失败时值为 NaN.
func newResult(value, mcErr float64, err error) Result {
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = xerrors.ErrNaNResult.With(nil, "calculation produced %g", value)
	}
	status := statusOf(err)
	if status != Normal && status != ReachedMaxIteration {
		value = math.NaN()
	}
	return Result{Value: value, Status: status, Err: err, MCError: mcErr}
}

func failed(err error) Result { return newResult(math.NaN(), 0, err) }
