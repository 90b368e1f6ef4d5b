package callback

import (
	"context"
	"testing"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry(t *testing.T) {
	noop := func(context.Context, *gateway.Message) {}

	t.Run("lookup is exact and case sensitive", func(t *testing.T) {
		registry := NewRegistry(zap.NewNop())
		registry.Register("!points", nil, noop, 0)

		_, ok := registry.Lookup("!points")
		assert.True(t, ok)

		for _, content := range []string{"!Points", "!points ", "!points please", "!point", ""} {
			_, ok := registry.Lookup(content)
			assert.False(t, ok, "content=%q", content)
		}
	})

	t.Run("re-registering replaces the binding", func(t *testing.T) {
		registry := NewRegistry(zap.NewNop())
		first := registry.Register("!roulette", nil, noop, time.Hour)
		second := registry.Register("!roulette", nil, noop, time.Minute)

		cb, ok := registry.Lookup("!roulette")
		require.True(t, ok)
		assert.Same(t, second, cb)
		assert.NotSame(t, first, cb)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("triggers are sorted", func(t *testing.T) {
		registry := NewRegistry(zap.NewNop())
		registry.Register("!roulette", nil, noop, 0)
		registry.Register("!points", nil, noop, 0)

		assert.Equal(t, []string{"!points", "!roulette"}, registry.Triggers())
	})
}
