package bootstrap

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wyfcoding/quant/algorithm/types"
	"github.com/wyfcoding/quant/config"
	"github.com/wyfcoding/quant/option"
	"github.com/wyfcoding/quant/underlying"
	"github.com/wyfcoding/quant/xerrors"
)

func TestParseFlags(t *testing.T) {
	path, err := ParseFlags("pricing", []string{"-config", "configs/pricing.toml"})
	if err != nil || path != "configs/pricing.toml" {
		t.Errorf("ParseFlags = %q, %v", path, err)
	}
	path, err = ParseFlags("pricing", nil)
	if err != nil || path != "" {
		t.Errorf("ParseFlags(nil) = %q, %v", path, err)
	}
	if _, err := ParseFlags("pricing", []string{"-unknown"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

func TestRuntimePricesAndTraces(t *testing.T) {
	cfg := config.Default()
	cfg.Tracing.Enabled = true
	cfg.Tracing.ServiceName = "pricing-test"
	exporter := tracetest.NewInMemoryExporter()

	r, err := NewWithConfig("pricing-test", cfg, exporter)
	if err != nil {
		t.Fatal(err)
	}

	calc, err := r.Calculator("analytic")
	if err != nil {
		t.Fatal(err)
	}
	o := option.NewEuropean(option.NewContract(
		underlying.NewSpot(100, 0.1, 0.1),
		option.NewVanilla(100, 1, 0.3, types.OptionTypeCall),
	))
	res := calc.Price(context.Background(), o)
	if !res.Status.OK() || math.Abs(res.Value-10.788863766710469) > 1e-9 {
		t.Errorf("price = %+v", res)
	}
	if got := testutil.ToFloat64(r.Metrics.CalculationsTotal.WithLabelValues("analytic", "price", "normal")); got != 1 {
		t.Errorf("calculations counter = %v, want 1", got)
	}

	if err := r.tracer.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 || spans[0].Name != "analytic.price" {
		t.Errorf("exported spans = %d", len(spans))
	}

	for _, name := range []string{"finite_difference", "monte_carlo"} {
		if _, err := r.Calculator(name); err != nil {
			t.Errorf("Calculator(%q): %v", name, err)
		}
	}
	if _, err := r.Calculator("binomial"); !errors.Is(err, xerrors.ErrMethodNotFound) {
		t.Errorf("unknown calculator error = %v", err)
	}

	if err := r.Close(context.Background()); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNewWithConfigRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Tracing.SampleRatio = 2
	if _, err := NewWithConfig("pricing-test", cfg); err == nil {
		t.Error("expected validation error for sample ratio 2")
	}
}

func TestNewLoadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.toml")
	content := `
version = "v2.0.0"

[pricing.worker]
size = 2
queue_size = 16
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := New("pricing-test", path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close(context.Background()) }()

	if r.Config.Version != "v2.0.0" || r.Pool.Size() != 2 {
		t.Errorf("version = %q, pool size = %d", r.Config.Version, r.Pool.Size())
	}
	if r.tracer != nil {
		t.Error("tracing is disabled by default")
	}

	next := r.Config
	next.Pricing.Worker.Size = 4
	r.onReload(&next)
}

func TestNewMissingFile(t *testing.T) {
	if _, err := New("pricing-test", filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
