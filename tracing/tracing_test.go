package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wyfcoding/quant/config"
)

func TestInitDisabledReturnsNil(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false})
	if err != nil || tp != nil {
		t.Errorf("Init(disabled) = %v, %v", tp, err)
	}
}

func TestInitExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp, err := Init(config.TracingConfig{Enabled: true, ServiceName: "pricing-test", SampleRatio: 1}, exporter)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := Tracer("calculator").Start(context.Background(), "analytic.price")
	if TraceID(ctx) == "" {
		t.Error("expected a trace id inside the span")
	}
	Fail(span, errors.New("boom"), "calculation_failed")
	Fail(span, nil, "ignored")
	span.End()

	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatal(err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "analytic.price" || got.Status.Code != codes.Error || got.Status.Description != "calculation_failed" {
		t.Errorf("span = %s %+v", got.Name, got.Status)
	}
	if len(got.Events) != 1 {
		t.Errorf("recorded %d error events, want 1", len(got.Events))
	}
	var service string
	for _, kv := range got.Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "pricing-test" {
		t.Errorf("service.name = %q", service)
	}
}

func TestTraceIDWithoutSpan(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Errorf("TraceID = %q, want empty", id)
	}
}

func TestInitWithOTLPEndpoint(t *testing.T) {
	tp, err := Init(config.TracingConfig{
		Enabled:     true,
		ServiceName: "pricing-test",
		SampleRatio: 0.5,
		Endpoint:    "127.0.0.1:4317",
		Insecure:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if tp == nil {
		t.Fatal("expected a provider")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
