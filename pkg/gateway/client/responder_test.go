package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReply(t *testing.T) {
	original, err := gateway.Parse([]byte(`{"op":0,"s":4,"t":"MESSAGE_CREATE","d":{"id":"100","channel_id":"7","content":"!roulette","type":0,"author":{"id":"42","username":"alice"}}}`), nil)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 13, 4, 5, 123456000, time.FixedZone("CET", 3600))
	reply := buildReply("you win", original, now)

	assert.Nil(t, reply["id"])
	assert.Equal(t, "2024-03-01T12:04:05.123456+00:00", reply["timestamp"])
	assert.Equal(t, "you win", reply["content"])
	assert.Equal(t, int(gateway.MessageTypeReply), reply["type"])
	assert.Equal(t, "7", reply["channel_id"])
	assert.Equal(t, map[string]any{"message_id": "100"}, reply["message_reference"])

	referenced := reply["referenced_message"].(map[string]any)
	assert.Equal(t, "!roulette", referenced["content"])
	assert.Equal(t, "100", referenced["id"])

	// The original payload is left untouched.
	data := original.EventData()
	assert.Equal(t, "!roulette", data["content"])
	assert.Equal(t, "100", data["id"])
	assert.NotContains(t, data, "referenced_message")

	// Nested values are copies.
	reply["author"].(map[string]any)["id"] = "changed"
	assert.Equal(t, "42", data["author"].(map[string]any)["id"])
}

func TestDeliver(t *testing.T) {
	t.Run("defaults the channel and caches the author", func(t *testing.T) {
		h := newHarness(t, nil)

		require.NoError(t, h.client.deliver(context.Background(), map[string]any{"content": "a"}))
		require.NoError(t, h.client.deliver(context.Background(), map[string]any{"content": "b"}))

		first := h.nextReply()
		second := h.nextReply()
		assert.Equal(t, "0", first.channelID)
		assert.Equal(t, "0", second.channelID)
		assert.Equal(t, "1", first.payload["author"].(map[string]any)["id"])

		assert.Equal(t, 1, h.api.currentUserCalls())
		assert.Equal(t, int64(2), h.client.Stats().RepliesSent)
	})

	t.Run("author lookup failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.api.meErr = errors.New("unauthorized")

		err := h.client.deliver(context.Background(), map[string]any{"channel_id": "7"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unauthorized")
		assert.Equal(t, int64(1), h.client.Stats().RepliesFailed)
		assert.Empty(t, h.api.replies)
	})
}

func TestRespondWithIsAsynchronous(t *testing.T) {
	h := newHarness(t, nil)
	original, err := gateway.Build(gateway.KindDispatch, map[string]any{"id": "9", "channel_id": "3", "content": "!points"})
	require.NoError(t, err)

	h.client.RespondWith("hello", original)

	reply := h.nextReply()
	assert.Equal(t, "3", reply.channelID)
	assert.Equal(t, "hello", reply.payload["content"])
}
