package cmd

import (
	"testing"

	"github.com/gweinbach/roulette/pkg/otel"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTelemetryProviders(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		metrics, tracer := telemetryProviders(false, zap.NewNop())
		assert.Nil(t, metrics)
		assert.Nil(t, tracer)
	})

	t.Run("enabled uses global providers", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)

		metrics, tracer := telemetryProviders(true, zap.New(core))
		assert.IsType(t, &otel.Provider{}, metrics)
		assert.IsType(t, &otel.Provider{}, tracer)
		assert.Equal(t, 1, logs.FilterMessageSnippet("SDK is registered").Len())
	})
}

func TestStringSliceToAnySlice(t *testing.T) {
	assert.Equal(t, []any{"a.rcl", "dir"}, stringSliceToAnySlice([]string{"a.rcl", "dir"}))
	assert.Empty(t, stringSliceToAnySlice(nil))
}
