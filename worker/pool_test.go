package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wyfcoding/quant/metrics"
	"github.com/wyfcoding/quant/xerrors"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(WithName("test"), WithSize(4), WithQueueSize(64))
	defer p.Stop()

	var n int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		if err := p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			atomic.AddInt64(&n, 1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()
	if n != 50 {
		t.Errorf("executed %d tasks, want 50", n)
	}
}

func TestTrySubmitRejectsWhenFull(t *testing.T) {
	m := metrics.NewMetrics("worker-test")
	p := NewPool(WithName("tiny"), WithSize(1), WithQueueSize(1), WithMetrics(m))
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := p.TrySubmit(func(ctx context.Context) {
		close(started)
		<-release
	}); err != nil {
		t.Fatalf("first TrySubmit: %v", err)
	}
	<-started
	if err := p.TrySubmit(func(ctx context.Context) {}); err != nil {
		t.Fatalf("queued TrySubmit: %v", err)
	}

	err := p.TrySubmit(func(ctx context.Context) {})
	if !errors.Is(err, ErrPoolFull) {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
	if !errors.Is(err, xerrors.ErrPoolFull) {
		t.Errorf("pool error should match xerrors sentinel")
	}
	if got := testutil.ToFloat64(p.gauges.rejected); got != 1 {
		t.Errorf("rejected counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.gauges.active); got != 1 {
		t.Errorf("active gauge = %v, want 1", got)
	}
	close(release)
}

func TestPanicIsRecovered(t *testing.T) {
	recovered := make(chan any, 1)
	p := NewPool(WithSize(1), WithPanicHandler(func(r any) { recovered <- r }))
	defer p.Stop()

	_ = p.Submit(context.Background(), func(ctx context.Context) { panic("boom") })
	select {
	case r := <-recovered:
		if r != "boom" {
			t.Errorf("recovered %v, want boom", r)
		}
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}

	done := make(chan struct{})
	_ = p.Submit(context.Background(), func(ctx context.Context) { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not survive panic")
	}
}

func TestStopRejectsSubmissions(t *testing.T) {
	p := NewPool(WithSize(2))
	p.Stop()
	p.Stop()

	if err := p.TrySubmit(func(ctx context.Context) {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("TrySubmit after Stop = %v, want ErrPoolClosed", err)
	}
	select {
	case <-p.Done():
	default:
		t.Error("Done channel should be closed after Stop")
	}
}

func TestStopCancelsQueuedTasks(t *testing.T) {
	p := NewPool(WithName("drain"), WithSize(1), WithQueueSize(4))

	release := make(chan struct{})
	started := make(chan struct{})
	_ = p.TrySubmit(func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	var cancelled atomic.Int32
	for range 3 {
		if err := p.TrySubmit(func(ctx context.Context) {
			if ctx.Err() != nil {
				cancelled.Add(1)
			}
		}); err != nil {
			t.Fatalf("TrySubmit: %v", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	<-p.Done()
	close(release)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	if n := cancelled.Load(); n != 3 {
		t.Errorf("cancelled %d queued tasks, want 3", n)
	}
}

func TestSubmitHonoursContext(t *testing.T) {
	p := NewPool(WithSize(1), WithQueueSize(1))
	defer p.Stop()

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	_ = p.TrySubmit(func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started
	_ = p.TrySubmit(func(ctx context.Context) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, func(ctx context.Context) {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit on a full queue = %v, want deadline exceeded", err)
	}
}
