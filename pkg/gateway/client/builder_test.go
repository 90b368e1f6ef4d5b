package client

import (
	"testing"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/gateway/callback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientBuilder(t *testing.T) {
	t.Run("token is required", func(t *testing.T) {
		_, err := NewClient().Build()
		assert.EqualError(t, err, "token is required")
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient().WithToken("secret").Build()
		require.NoError(t, err)

		assert.Equal(t, gateway.DefaultIntents, client.intents)
		assert.Equal(t, DefaultGatewayVersion, client.gatewayVersion)
		assert.NotNil(t, client.api)
		assert.NotNil(t, client.dial)
		assert.NotNil(t, client.registry)
		assert.NotEmpty(t, client.SessionID())
		assert.Equal(t, StateIdle, client.State())
	})

	t.Run("options", func(t *testing.T) {
		registry := callback.NewRegistry(zap.NewNop())
		client, err := NewClient().
			WithToken("secret").
			WithIntents(gateway.IntentGuildMessages).
			WithGatewayVersion(10).
			WithDialTimeout(time.Second).
			WithReadLimit(1024).
			WithRegistry(registry).
			WithLogger(zap.NewNop()).
			Build()
		require.NoError(t, err)

		assert.Equal(t, gateway.IntentGuildMessages, client.intents)
		assert.Equal(t, 10, client.gatewayVersion)
		assert.Same(t, registry, client.Registry())
	})

	t.Run("invalid values keep defaults", func(t *testing.T) {
		b := NewClient().
			WithGatewayVersion(0).
			WithDialTimeout(-time.Second).
			WithReadLimit(0).
			WithLogger(nil).
			WithJitter(nil)

		assert.Equal(t, DefaultGatewayVersion, b.gatewayVersion)
		assert.Equal(t, DefaultDialTimeout, b.dialTimeout)
		assert.Equal(t, int64(DefaultReadLimit), b.readLimit)
		assert.NotNil(t, b.logger)
		assert.NotNil(t, b.jitter)
	})

	t.Run("each client has its own session", func(t *testing.T) {
		a, err := NewClient().WithToken("secret").Build()
		require.NoError(t, err)
		b, err := NewClient().WithToken("secret").Build()
		require.NoError(t, err)

		assert.NotEqual(t, a.SessionID(), b.SessionID())
	})
}

func TestClientRegister(t *testing.T) {
	client, err := NewClient().WithToken("secret").Build()
	require.NoError(t, err)

	cb := client.Register("!points", nil, nil, time.Minute)
	assert.Equal(t, "!points", cb.Trigger())
	assert.Equal(t, 1, client.Registry().Len())
}
