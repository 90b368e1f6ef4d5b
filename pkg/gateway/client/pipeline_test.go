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

func TestSignal(t *testing.T) {
	s := newSignal()
	assert.False(t, s.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)

	s.Set()
	s.Set()
	assert.True(t, s.IsSet())
	require.NoError(t, s.Wait(context.Background()))
	require.NoError(t, s.Wait(context.Background()))

	s.Clear()
	assert.False(t, s.IsSet())

	done := make(chan error, 1)
	go func() { done <- s.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("wait returned before set")
	case <-time.After(20 * time.Millisecond):
	}

	s.Set()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after set")
	}
}

func TestOperationQueue(t *testing.T) {
	t.Run("fifo", func(t *testing.T) {
		q := newOperationQueue()
		for i := 0; i < 100; i++ {
			op, err := gateway.Build(gateway.KindDispatch, map[string]any{"n": i})
			require.NoError(t, err)
			q.Push(queuedOperation{op: op})
		}
		assert.Equal(t, 100, q.Len())

		for i := 0; i < 100; i++ {
			item, err := q.Pop(context.Background())
			require.NoError(t, err)
			assert.Equal(t, i, item.op.EventData()["n"])
		}
		assert.Equal(t, 0, q.Len())
	})

	t.Run("pop blocks until push", func(t *testing.T) {
		q := newOperationQueue()
		got := make(chan queuedOperation, 1)
		go func() {
			item, _ := q.Pop(context.Background())
			got <- item
		}()

		time.Sleep(10 * time.Millisecond)
		q.Push(queuedOperation{err: gateway.ErrEmptyOperation})

		select {
		case item := <-got:
			assert.ErrorIs(t, item.err, gateway.ErrEmptyOperation)
		case <-time.After(time.Second):
			t.Fatal("pop did not return")
		}
	})

	t.Run("pop honours cancellation", func(t *testing.T) {
		q := newOperationQueue()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := q.Pop(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestInvalidReason(t *testing.T) {
	assert.Equal(t, "empty", invalidReason(gateway.ErrEmptyOperation))
	assert.Equal(t, "unknown", invalidReason(&gateway.UnknownOperationError{Op: gateway.OpReconnect}))
	assert.Equal(t, "invalid", invalidReason(&gateway.InvalidOperationError{Op: gateway.OpHello}))
	assert.Equal(t, "malformed", invalidReason(errors.New("bad json")))
}

func TestHandleReturnsCompletion(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan struct{})
	h.client.Register("!roulette", nil, func(ctx context.Context, msg *gateway.Message) {
		<-release
	}, time.Hour)

	op, err := gateway.Parse([]byte(`{"op":0,"s":1,"t":"MESSAGE_CREATE","d":{"id":"1","content":"!roulette","author":{"id":"42"}}}`), nil)
	require.NoError(t, err)

	done := h.client.handle(context.Background(), queuedOperation{op: op})
	require.NotNil(t, done)

	// Disarmed for this user until the cooldown expires.
	assert.Nil(t, h.client.handle(context.Background(), queuedOperation{op: op}))

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not complete")
	}

	ack, err := gateway.Parse([]byte(`{"op":11}`), nil)
	require.NoError(t, err)
	assert.Nil(t, h.client.handle(context.Background(), queuedOperation{op: ack}))
	assert.True(t, h.client.armed.IsSet())

	assert.Nil(t, h.client.handle(context.Background(), queuedOperation{err: gateway.ErrEmptyOperation}))
}
