package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbourn/go-boardgame-planner/internal/config"
)

func preserveOTelGlobals(t *testing.T) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
}

func enabled(name string, insecure bool) config.OTELConfig {
	return config.OTELConfig{
		Enabled:     true,
		Insecure:    insecure,
		Endpoint:    "localhost:4317",
		ServiceName: name,
		SampleRatio: 1.0,
	}
}

func TestSetup_DisabledIsNoOp(t *testing.T) {
	preserveOTelGlobals(t)
	prevTP := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), config.OTELConfig{Enabled: false}, "v0")
	if err != nil || shutdown == nil {
		t.Fatalf("Setup disabled: shutdown=%v err=%v", shutdown != nil, err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
	if otel.GetTracerProvider() != prevTP {
		t.Fatalf("disabled setup must not replace the provider")
	}
}

func TestSetup_InstallsProviderAndPropagator(t *testing.T) {
	for _, insecure := range []bool{true, false} {
		preserveOTelGlobals(t)

		shutdown, err := Setup(context.Background(), enabled("planner-test", insecure), "v1.2.3")
		if err != nil {
			t.Fatalf("insecure=%v: %v", insecure, err)
		}
		if _, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); !ok {
			t.Fatalf("expected *sdktrace.TracerProvider")
		}

		ctx, span := otel.Tracer("services/VersionManager").Start(context.Background(), "RegenerateRule")
		carrier := propagation.MapCarrier{}
		otel.GetTextMapPropagator().Inject(ctx, carrier)
		span.End()
		if !strings.HasPrefix(carrier.Get("traceparent"), "00-") {
			t.Fatalf("traceparent not injected: %v", carrier)
		}

		sctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
		_ = shutdown(sctx)
		cancel()
	}
}

func TestSetup_ErrorsLeaveGlobalsIntact(t *testing.T) {
	preserveOTelGlobals(t)
	origExp, origRes := newOTLPExporterFn, newServiceResourceFn
	t.Cleanup(func() { newOTLPExporterFn, newServiceResourceFn = origExp, origRes })

	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()

	newOTLPExporterFn = func(context.Context, otlptrace.Client) (*otlptrace.Exporter, error) {
		return nil, errors.New("boom-exporter")
	}
	if _, err := Setup(context.Background(), enabled("svc", true), "v0"); err == nil {
		t.Fatalf("expected exporter error")
	}

	newOTLPExporterFn = origExp
	var gotInstance string
	newServiceResourceFn = func(_ context.Context, _, _, instance string) (*resource.Resource, error) {
		gotInstance = instance
		return nil, errors.New("boom-resource")
	}
	if _, err := Setup(context.Background(), enabled("svc", true), "v0"); err == nil {
		t.Fatalf("expected resource error")
	}
	if gotInstance == "" {
		t.Fatalf("instance id should be generated")
	}

	if otel.GetTracerProvider() != prevTP || otel.GetTextMapPropagator() != prevProp {
		t.Fatalf("globals changed on failure")
	}
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:    "AlwaysOnSampler",
		2:    "AlwaysOnSampler",
		0:    "AlwaysOffSampler",
		-1:   "AlwaysOffSampler",
		0.25: "TraceIDRatioBased{0.25}",
	}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); !strings.Contains(got, want) {
			t.Fatalf("sampler(%v) = %q, want it to mention %q", ratio, got, want)
		}
	}
}
