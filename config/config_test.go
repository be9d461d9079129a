package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Pricing.MonteCarlo.Nodes != 500 || cfg.Pricing.MonteCarlo.PathSize != 10000 {
		t.Errorf("unexpected monte carlo defaults: %+v", cfg.Pricing.MonteCarlo)
	}
}

func TestNormalizedClamps(t *testing.T) {
	p := PricingConfig{
		Greek:      GreekConfig{Spot: 1e-20},
		Newton:     NewtonConfig{Iterations: 50000, Tolerance: 1e-14},
		MonteCarlo: MonteCarloConfig{Nodes: 20000, PathSize: 900000},
		Heston:     HestonConfig{Blocks: 5000000, Accuracy: 1e-9},
	}.Normalized()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"spot bump floor", p.Greek.Spot, 2.220446049250313e-16},
		{"vol bump default", p.Greek.Vol, 1e-4},
		{"iterations cap", float64(p.Newton.Iterations), 10000},
		{"tolerance floor", p.Newton.Tolerance, 1e-10},
		{"nodes cap", float64(p.MonteCarlo.Nodes), 10000},
		{"path cap", float64(p.MonteCarlo.PathSize), 500000},
		{"batches default", float64(p.MonteCarlo.Batches), 50},
		{"heston blocks cap", float64(p.Heston.Blocks), 1000000},
		{"heston accuracy floor", p.Heston.Accuracy, 1e-6},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if p.Worker.QueueSize != 256 {
		t.Errorf("queue size default: got %d, want 256", p.Worker.QueueSize)
	}

	if d := DefaultPricing().Normalized(); d.Newton.Tolerance != 1e-12 {
		t.Errorf("default tolerance changed by normalization: %v", d.Newton.Tolerance)
	}
}

func TestNormalizedQueueCoversBatches(t *testing.T) {
	p := DefaultPricing()
	p.MonteCarlo.Batches = 400
	p.Worker.QueueSize = 16
	if got := p.Normalized().Worker.QueueSize; got != 400 {
		t.Errorf("queue size = %d, want 400", got)
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.toml")
	content := `
version = "v1.2.0"

[log]
level = "debug"

[pricing.montecarlo]
nodes = 250
path_size = 20000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var cfg Config
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != "v1.2.0" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected top level: %+v", cfg)
	}
	if cfg.Pricing.MonteCarlo.Nodes != 250 || cfg.Pricing.MonteCarlo.PathSize != 20000 {
		t.Errorf("monte carlo not overlaid: %+v", cfg.Pricing.MonteCarlo)
	}
	if cfg.Pricing.Heston.Blocks != 10000 {
		t.Errorf("heston default lost: %+v", cfg.Pricing.Heston)
	}
}

func TestValidateRejectsBadLevel(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	if err := Validate(&cfg); err == nil {
		t.Error("expected validation error for unknown log level")
	}
}

func TestMaskedJSON(t *testing.T) {
	cfg := Default()
	cfg.Pricing.History.ProviderAPIKey = "abc123"
	out, err := MaskedJSON(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "abc123") {
		t.Errorf("api key leaked: %s", out)
	}
	if !strings.Contains(out, "******") {
		t.Errorf("mask marker missing: %s", out)
	}
}
