package callback

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingOwner struct {
	calls atomic.Int32
	users chan string
}

func newCountingOwner() *countingOwner {
	return &countingOwner{users: make(chan string, 16)}
}

func (o *countingOwner) handle(ctx context.Context, msg *gateway.Message) {
	o.calls.Add(1)
	o.users <- msg.Author.ID
}

func message(userID string) *gateway.Message {
	return gateway.NewMessage("m-"+userID, gateway.User{ID: userID, Name: "user" + userID}, "!roulette", nil, nil)
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	require.NotNil(t, done, "expected the handler to fire")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return")
	}
}

func TestCallbackCooldown(t *testing.T) {
	clock := newFakeClock()
	registry := NewRegistry(zap.NewNop())
	registry.now = clock.Now

	owner := newCountingOwner()
	cb := registry.Register("!roulette", owner, owner.handle, 10*time.Second)
	ctx := context.Background()

	t.Run("first fire runs the handler", func(t *testing.T) {
		wait(t, cb.Fire(ctx, message("U")))
		assert.Equal(t, int32(1), owner.calls.Load())
		assert.False(t, cb.Armed("U"))
	})

	t.Run("fire within the cooldown is a no-op", func(t *testing.T) {
		clock.Advance(5 * time.Second)
		assert.Nil(t, cb.Fire(ctx, message("U")))
		assert.Equal(t, int32(1), owner.calls.Load())
	})

	t.Run("cooldown is per user", func(t *testing.T) {
		wait(t, cb.Fire(ctx, message("U2")))
		assert.Equal(t, int32(2), owner.calls.Load())
	})

	t.Run("fire after the cooldown runs again", func(t *testing.T) {
		clock.Advance(5*time.Second + time.Millisecond)
		assert.True(t, cb.Armed("U"))
		wait(t, cb.Fire(ctx, message("U")))
		assert.Equal(t, int32(3), owner.calls.Load())
	})

	t.Run("exactly at expiry the user is armed", func(t *testing.T) {
		clock.Advance(10 * time.Second)
		assert.True(t, cb.Armed("U"))
	})
}

func TestCallbackZeroCooldown(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	owner := newCountingOwner()
	cb := registry.Register("!points", owner, owner.handle, 0)

	for i := 0; i < 3; i++ {
		wait(t, cb.Fire(context.Background(), message("42")))
	}
	assert.Equal(t, int32(3), owner.calls.Load())
	assert.True(t, cb.Armed("42"))
}

func TestCallbackEmptyUserIsAlwaysArmed(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	owner := newCountingOwner()
	cb := registry.Register("!roulette", owner, owner.handle, time.Hour)

	wait(t, cb.Fire(context.Background(), message("")))
	wait(t, cb.Fire(context.Background(), message("")))
	assert.Equal(t, int32(2), owner.calls.Load())
}

func TestCallbackConcurrentFiresForOneUser(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	owner := newCountingOwner()
	cb := registry.Register("!roulette", owner, owner.handle, time.Hour)

	var wg sync.WaitGroup
	var fired atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if done := cb.Fire(context.Background(), message("U")); done != nil {
				fired.Add(1)
				<-done
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, int32(1), owner.calls.Load())
}

func TestCallbackHandlerPanicIsRecovered(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	cb := registry.Register("!boom", nil, func(ctx context.Context, msg *gateway.Message) {
		panic("boom")
	}, 0)

	assert.NotPanics(t, func() {
		wait(t, cb.Fire(context.Background(), message("U")))
	})
}

// Handlers get no deadline from the callback; a stuck handler stays stuck
// until it observes its own context.
func TestCallbackHasNoHandlerTimeout(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	release := make(chan struct{})
	cb := registry.Register("!slow", nil, func(ctx context.Context, msg *gateway.Message) {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)
		<-release
	}, 0)

	done := cb.Fire(context.Background(), message("U"))
	require.NotNil(t, done)

	select {
	case <-done:
		t.Fatal("handler returned before being released")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wait(t, done)
}

func TestCallbackString(t *testing.T) {
	registry := NewRegistry(nil)
	owner := newCountingOwner()
	cb := registry.Register("!roulette", owner, owner.handle, time.Hour)

	assert.Equal(t, "Callback(!roulette, *callback.countingOwner, 1h0m0s)", cb.String())
	assert.Equal(t, "!roulette", cb.Trigger())
	assert.Same(t, owner, cb.Owner())
	assert.Equal(t, time.Hour, cb.Cooldown())
}

func TestCallbackNegativeCooldownIsZero(t *testing.T) {
	registry := NewRegistry(nil)
	cb := registry.Register("!x", nil, func(context.Context, *gateway.Message) {}, -time.Second)
	assert.Equal(t, time.Duration(0), cb.Cooldown())
}
