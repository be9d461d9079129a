package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wyfcoding/quant/algorithm/finance"
	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/underlying"
	"github.com/wyfcoding/quant/volatility"
	"github.com/wyfcoding/quant/worker"
	"github.com/wyfcoding/quant/xerrors"
)

func contract() option.Contract {
	return option.NewContract(underlying.NewSpot(100, 0.1, 0.1), option.NewVanilla(100, 1, 0.3, types.OptionTypeCall))
}

func newPool(t *testing.T) *worker.Pool {
	t.Helper()
	p := worker.NewPool(worker.WithName("sim-test"), worker.WithSize(4), worker.WithQueueSize(64))
	t.Cleanup(p.Stop)
	return p
}

func TestParamsNormalized(t *testing.T) {
	p := Params{Nodes: 20000, PathSize: 3, Batches: 10}.Normalized()
	if p.Nodes != maxNodes || p.PathSize != 3 || p.Batches != 3 || p.ErrorMultiplier != DefaultErrorMultiplier {
		t.Errorf("Normalized = %+v", p)
	}
	sizes := Params{PathSize: 10, Batches: 4}.Normalized().batchSizes()
	total := 0
	for _, s := range sizes {
		total += s
	}
	if total != 10 || sizes[0] != 3 || sizes[3] != 2 {
		t.Errorf("batch sizes = %v", sizes)
	}
}

func TestPathWithoutNoise(t *testing.T) {
	c := contract()
	path := Path(c, make([]float64, 4), false, nil)
	drift := -0.5 * 0.3 * 0.3 * 0.25
	for i, s := range path {
		want := 100 * math.Exp(drift*float64(i))
		if math.Abs(s-want) > 1e-10 {
			t.Errorf("path[%d] = %v, want %v", i, s, want)
		}
	}

	z := []float64{0.3, -1.2, 0.8, 0.1}
	flat := Path(c, z, false, nil)
	local := Path(c.WithSurface(volatility.Flat(0.3)), z, true, nil)
	for i := range flat {
		if math.Abs(flat[i]-local[i]) > 1e-9 {
			t.Errorf("flat local vol path[%d] = %v, want %v", i, local[i], flat[i])
		}
	}
}

func TestPriceWithinErrorBound(t *testing.T) {
	c := contract()
	e := NewEngine(newPool(t), Params{Nodes: 50, PathSize: 40000, Batches: 20, Seed: 7})
	est, err := e.Price(context.Background(), option.NewEuropean(c))
	if err != nil {
		t.Fatal(err)
	}
	want := finance.BSM(c.Inputs())
	if math.Abs(est.Value-want) > est.Error {
		t.Errorf("mc %v ± %v does not cover bsm %v", est.Value, est.Error, want)
	}
	if est.Paths != 40000 || est.Error != 3*est.StdErr {
		t.Errorf("estimate = %+v", est)
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	pool := newPool(t)
	o := option.NewEuropean(contract())
	p := Params{Nodes: 10, PathSize: 2000, Batches: 8, Seed: 42}
	a, err := NewEngine(pool, p).Price(context.Background(), o)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewEngine(pool, p).Price(context.Background(), o)
	if a.Value != b.Value || a.StdErr != b.StdErr {
		t.Errorf("same seed gave %v and %v", a.Value, b.Value)
	}
}

func TestCommonRandomNumbers(t *testing.T) {
	e := NewEngine(newPool(t), Params{Nodes: 20, PathSize: 20000, Batches: 10, Seed: 3})
	c := contract()

	same, err := e.Difference(context.Background(), option.NewEuropean(c), option.NewEuropean(c), 1)
	if err != nil {
		t.Fatal(err)
	}
	if same.Value != 0 || same.StdErr != 0 {
		t.Errorf("identical contracts differ: %+v", same)
	}

	lower, upper := option.NewEuropean(c.WithSpot(99.5)), option.NewEuropean(c.WithSpot(100.5))
	delta, err := e.Difference(context.Background(), lower, upper, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := finance.ClosedFormGreeks(c.Inputs()).Delta
	if math.Abs(delta.Value-want) > 0.02 {
		t.Errorf("crn delta = %v, want %v", delta.Value, want)
	}
}

func TestPoolFullIsRejected(t *testing.T) {
	pool := worker.NewPool(worker.WithName("tiny"), worker.WithSize(1), worker.WithQueueSize(1))
	defer pool.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	if err := pool.TrySubmit(func(context.Context) { close(started); <-release }); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := pool.TrySubmit(func(context.Context) {}); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(pool, Params{Nodes: 5, PathSize: 100, Batches: 4, Seed: 1})
	_, err := e.Price(context.Background(), option.NewEuropean(contract()))
	close(release)
	if !errors.Is(err, xerrors.ErrPoolFull) {
		t.Errorf("err = %v, want ErrPoolFull", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(newPool(t), Params{Nodes: 5, PathSize: 100, Batches: 4, Seed: 1})
	if _, err := e.Price(ctx, option.NewEuropean(contract())); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPanickingSamplerFails(t *testing.T) {
	e := NewEngine(newPool(t), Params{Nodes: 5, PathSize: 10, Batches: 2, Seed: 1})
	_, err := e.Run(context.Background(), func([]float64) float64 { panic("boom") })
	if !errors.Is(err, xerrors.ErrCalculation) {
		t.Errorf("err = %v, want ErrCalculation", err)
	}
}
