// Package async 提供带 panic 恢复的 goroutine 启动与分组等待工具.
package async

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// ErrPanicRecovered 异步任务中恢复的 panic.
var ErrPanicRecovered = errors.New("async task panic recovered")

// PanicError 把 recover 的值转换为可被 errors.Is(ErrPanicRecovered) 识别的错误.
func PanicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanicRecovered, err)
	}
	return fmt.Errorf("%w: %v", ErrPanicRecovered, rec)
}

// SafeGo 启动 goroutine，panic 被恢复并连同堆栈写入默认日志.
func SafeGo(fn func()) {
	go func() {
		defer logPanic("goroutine")
		fn()
	}()
}

func logPanic(task string) {
	if rec := recover(); rec != nil {
		slog.Error("async task panic recovered", "task", task, "error", PanicError(rec), "stack", string(debug.Stack()))
	}
}

// RunGroup 在 errgroup 之上把任务 panic 转换为错误. 零值可用.
type RunGroup struct {
	g errgroup.Group
}

// SetLimit 限制同时运行的任务数，负数表示不限制.
func (r *RunGroup) SetLimit(n int) {
	r.g.SetLimit(n)
}

// Go 在组中启动一个任务.
func (r *RunGroup) Go(fn func() error) {
	r.g.Go(func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = PanicError(rec)
			}
		}()
		return fn()
	})
}

// Wait 等待全部任务结束，返回第一个错误.
func (r *RunGroup) Wait() error {
	return r.g.Wait()
}
