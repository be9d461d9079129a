// Package xerrors 定义带业务码的定价错误，以及到 HTTP/gRPC 状态码的映射，供上层服务直接转换.
package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorType 错误的大类，决定协议层状态码.
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidArg
	ErrNotFound
	ErrNotImplemented
	ErrDeadlineExceeded
	ErrUnavailable
	ErrLimitExceeded
)

var kinds = [...]struct {
	name string
	http int
	grpc codes.Code
}{
	ErrUnknown:          {"Unknown", http.StatusInternalServerError, codes.Unknown},
	ErrInternal:         {"Internal", http.StatusInternalServerError, codes.Internal},
	ErrInvalidArg:       {"InvalidArg", http.StatusBadRequest, codes.InvalidArgument},
	ErrNotFound:         {"NotFound", http.StatusNotFound, codes.NotFound},
	ErrNotImplemented:   {"NotImplemented", http.StatusNotImplemented, codes.Unimplemented},
	ErrDeadlineExceeded: {"DeadlineExceeded", http.StatusGatewayTimeout, codes.DeadlineExceeded},
	ErrUnavailable:      {"Unavailable", http.StatusServiceUnavailable, codes.Unavailable},
	ErrLimitExceeded:    {"LimitExceeded", http.StatusTooManyRequests, codes.ResourceExhausted},
}

func (t ErrorType) String() string {
	if int(t) >= len(kinds) {
		return kinds[ErrUnknown].name
	}
	return kinds[t].name
}

// Error 业务码相同即视为同一错误，哨兵派生出的实例仍能被 errors.Is 识别.
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`
	Message string         `json:"message"` // 稳定的错误描述
	Detail  string         `json:"detail"`  // 本次失败的具体参数
	Cause   error          `json:"-"`
	Stack   []string       `json:"stack"`
	Context map[string]any `json:"context"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %d: %s", e.Type, e.Code, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && e.Code == t.Code
}

// New 创建错误并记录调用栈.
func New(errType ErrorType, code int, message, detail string, cause error) *Error {
	return &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
		Stack:   callers(3),
		Context: make(map[string]any),
	}
}

func callers(skip int) []string {
	const depth = 10
	var pcs [depth]uintptr
	frames := runtime.CallersFrames(pcs[:runtime.Callers(skip, pcs[:])])
	stack := make([]string, 0, depth)
	for {
		f, more := frames.Next()
		stack = append(stack, fmt.Sprintf("%s:%d (%s)", f.File, f.Line, f.Function))
		if !more {
			return stack
		}
	}
}

// With 以哨兵为模板派生新错误，哨兵本身不变.
func (e *Error) With(cause error, format string, args ...any) *Error {
	return New(e.Type, e.Code, e.Message, fmt.Sprintf(format, args...), cause)
}

// WithContext 附加键值，便于日志输出.
func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// Wrap 包装任意错误. 链上已有 *Error 时沿用其类型与业务码.
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	if e, ok := FromError(err); ok {
		return New(e.Type, e.Code, msg, e.Detail, err)
	}
	return New(errType, int(errType), msg, "", err)
}

// HTTPStatus 对应的 HTTP 状态码.
func (e *Error) HTTPStatus() int {
	if int(e.Type) >= len(kinds) {
		return http.StatusInternalServerError
	}
	return kinds[e.Type].http
}

// GRPCCode 对应的 gRPC 状态码.
func (e *Error) GRPCCode() codes.Code {
	if int(e.Type) >= len(kinds) {
		return codes.Unknown
	}
	return kinds[e.Type].grpc
}

func (e *Error) ToGRPCStatus() *status.Status {
	return status.New(e.GRPCCode(), e.Error())
}

// FromError 沿错误链查找第一个 *Error.
func FromError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
