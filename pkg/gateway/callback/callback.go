// Package callback binds message triggers to handlers with a per-user
// cooldown.
package callback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"go.uber.org/zap"
)

// Handler processes a message that matched a trigger.
type Handler func(ctx context.Context, msg *gateway.Message)

// Callback is a trigger bound to a handler. Each user who fires it is
// disarmed until the cooldown has elapsed.
type Callback struct {
	trigger  string
	owner    any
	handler  Handler
	cooldown time.Duration

	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	expiry map[string]time.Time
}

func newCallback(trigger string, owner any, handler Handler, cooldown time.Duration, logger *zap.Logger, now func() time.Time) *Callback {
	if cooldown < 0 {
		cooldown = 0
	}

	return &Callback{
		trigger:  trigger,
		owner:    owner,
		handler:  handler,
		cooldown: cooldown,
		logger:   logger,
		now:      now,
		expiry:   make(map[string]time.Time),
	}
}

func (c *Callback) Trigger() string {
	return c.trigger
}

func (c *Callback) Owner() any {
	return c.owner
}

func (c *Callback) Cooldown() time.Duration {
	return c.cooldown
}

// Armed reports whether the next Fire for userID would run the handler.
func (c *Callback) Armed(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.armedLocked(userID, c.now())
}

func (c *Callback) armedLocked(userID string, now time.Time) bool {
	if userID == "" {
		return true
	}
	expiry, ok := c.expiry[userID]
	return !ok || !now.Before(expiry)
}

// disarm checks and disarms atomically, so concurrent fires for one user
// run the handler at most once per cooldown.
func (c *Callback) disarm(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.armedLocked(userID, now) {
		return false
	}
	if userID != "" && c.cooldown > 0 {
		c.expiry[userID] = now.Add(c.cooldown)
	}
	return true
}

// Fire runs the handler in a new goroutine when the message author is armed
// and disarms the author for the cooldown. It returns a channel closed when
// the handler returns, or nil when the author is disarmed. Handler panics
// are recovered and logged.
func (c *Callback) Fire(ctx context.Context, msg *gateway.Message) <-chan struct{} {
	if !c.disarm(msg.Author.ID) {
		c.logger.Debug("Callback is disarmed for user",
			zap.String("trigger", c.trigger),
			zap.String("user", msg.Author.ID))
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Callback handler panicked",
					zap.String("trigger", c.trigger),
					zap.String("message", msg.ID),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}()

		c.handler(ctx, msg)
	}()

	return done
}

func (c *Callback) String() string {
	return fmt.Sprintf("Callback(%s, %T, %s)", c.trigger, c.owner, c.cooldown)
}
