package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown := Setup("shift-service", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, shutdown(context.Background()))
}

func TestSamplingRatio(t *testing.T) {
	cases := map[string]float64{"": 1, "0.25": 0.25, "oops": 1, "2": 1, "0": 0}
	for raw, want := range cases {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", raw)
		assert.Equal(t, want, samplingRatio(), "arg %q", raw)
	}
}
