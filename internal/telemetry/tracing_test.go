package telemetry

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/event-registration-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_NoneExporter(t *testing.T) {
	cfg := config.TracingConfig{
		Enabled:     true,
		Exporter:    "none",
		ServiceName: "event-registration-api-test",
		SampleRate:  1.0,
	}

	shutdown, err := InitTracing(context.Background(), cfg, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, span := Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.SpanContext().IsSampled())
}

func TestInitTracing_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TracingConfig
	}{
		{"sample rate too high", config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: 1.5}},
		{"sample rate negative", config.TracingConfig{Enabled: true, Exporter: "none", SampleRate: -0.1}},
		{"unknown exporter", config.TracingConfig{Enabled: true, Exporter: "jaeger", SampleRate: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitTracing(context.Background(), tt.cfg, "test")
			assert.Error(t, err)
		})
	}
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), newSampler(0.25).Description())
}
