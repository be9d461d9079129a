package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wyfcoding/quant/config"
)

var errTransient = errors.New("transient")

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, Max: 4 * time.Millisecond, Multiplier: 2}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, nil)
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d, want nil after 3 calls", err, calls)
	}
}

func TestDoStopsAfterAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Do(context.Background(), func(context.Context) error {
		calls++
		return errTransient
	}, nil)
	if !errors.Is(err, errTransient) || calls != 3 {
		t.Errorf("err = %v, calls = %d, want transient after 3 calls", err, calls)
	}
}

func TestDoSkipsPermanentErrors(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) })
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("err = %v, calls = %d, want a single call", err, calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Initial: time.Hour}
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	}, nil)
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	p := fastPolicy(0)
	if got := p.next(3 * time.Millisecond); got != 4*time.Millisecond {
		t.Errorf("next = %v, want cap 4ms", got)
	}
	p.Jitter = 0.5
	for range 100 {
		if d := p.jittered(10 * time.Millisecond); d < 5*time.Millisecond || d > 15*time.Millisecond {
			t.Fatalf("jittered = %v outside ±50%%", d)
		}
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.HistoryConfig{Retries: 4, Backoff: 3 * time.Second})
	if p.Attempts != 4 || p.Initial != 3*time.Second || p.Max != 3*time.Second {
		t.Errorf("policy = %+v", p)
	}
}
