package client

import (
	"context"
	"errors"

	"github.com/gweinbach/roulette/pkg/gateway"
	"go.uber.org/zap"
)

// intake reads frames once the session is ready and queues them in arrival
// order. Parse failures are queued too so dispatch can report them.
func (c *Client) intake(ctx context.Context) error {
	if err := c.connected.Wait(ctx); err != nil {
		return err
	}
	c.logger.Info("Queuing gateway operations")

	for {
		raw, err := c.receive(ctx)
		if err != nil {
			return err
		}

		op, err := gateway.Parse(raw, &c.cursor)
		c.queue.Push(queuedOperation{op: op, err: err})
	}
}

// dispatch pops queued operations in FIFO order and handles each in its own
// goroutine.
func (c *Client) dispatch(ctx context.Context) error {
	if err := c.connected.Wait(ctx); err != nil {
		return err
	}
	c.logger.Info("Dispatching gateway operations")

	for {
		item, err := c.queue.Pop(ctx)
		if err != nil {
			return err
		}

		go c.handle(ctx, item)
	}
}

// handle applies one queued operation. When a callback fires, the returned
// channel is closed once its handler returns; otherwise it is nil.
func (c *Client) handle(ctx context.Context, item queuedOperation) <-chan struct{} {
	if item.err != nil {
		c.logger.Warn("Dropping gateway operation", zap.Error(item.err))
		c.metrics.recordInvalidOperation(ctx, invalidReason(item.err))
		return nil
	}

	op := item.op
	switch op.Kind {
	case gateway.KindHeartbeatAck:
		c.heartbeatAcks.Add(1)
		c.metrics.recordHeartbeatAck(ctx)
		c.armed.Set()
		return nil
	case gateway.KindDispatch:
		return c.handleDispatch(ctx, op)
	default:
		c.logger.Debug("Nothing to do for gateway operation", zap.Stringer("operation", op))
		return nil
	}
}

func (c *Client) handleDispatch(ctx context.Context, op *gateway.Operation) <-chan struct{} {
	msg, ok := gateway.MessageFromOperation(op, c)
	if !ok {
		return nil
	}

	cb, ok := c.registry.Lookup(msg.Content)
	if !ok {
		return nil
	}

	done := cb.Fire(ctx, msg)
	c.metrics.recordCallback(ctx, cb.Trigger(), done != nil)
	if done == nil {
		return nil
	}

	c.callbacksFired.Add(1)
	c.logger.Info("Fired callback",
		zap.Stringer("callback", cb),
		zap.String("message", msg.ID),
		zap.String("user", msg.Author.ID))

	return done
}

func invalidReason(err error) string {
	var unknown *gateway.UnknownOperationError
	var invalid *gateway.InvalidOperationError

	switch {
	case errors.Is(err, gateway.ErrEmptyOperation):
		return "empty"
	case errors.As(err, &unknown):
		return "unknown"
	case errors.As(err, &invalid):
		return "invalid"
	default:
		return "malformed"
	}
}
