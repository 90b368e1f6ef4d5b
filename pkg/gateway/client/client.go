// Package client implements the gateway connection: the lifecycle from
// Hello to Ready, the acknowledged heartbeat, the intake/dispatch pipeline
// and the responder that turns handler replies into REST calls.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/gateway/callback"
	"github.com/gweinbach/roulette/pkg/o11y"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errNotConnected = errors.New("transport is not connected")

// API is the REST surface used by the client. *rest.Client implements it.
type API interface {
	GatewayURL(ctx context.Context, gatewayVersion int) (string, error)
	CurrentUser(ctx context.Context) (map[string]any, error)
	CreateMessage(ctx context.Context, channelID string, payload map[string]any) error
}

// State is a step of the connection lifecycle.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateAwaitingHello
	StateIdentifying
	StateAwaitingReady
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateAwaitingHello:
		return "AwaitingHello"
	case StateIdentifying:
		return "Identifying"
	case StateAwaitingReady:
		return "AwaitingReady"
	case StateReady:
		return "Ready"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Stats is a point-in-time snapshot of client counters.
type Stats struct {
	Session        string
	State          State
	Sequence       int64
	HasSequence    bool
	QueueDepth     int
	FramesReceived int64
	HeartbeatsSent int64
	HeartbeatAcks  int64
	CallbacksFired int64
	RepliesSent    int64
	RepliesFailed  int64
}

// Client is a single-use gateway connection. Build it with NewClient, register
// callbacks, then call Run.
type Client struct {
	token          string
	intents        gateway.Intent
	gatewayVersion int
	properties     gateway.ConnectionProperties
	sessionID      string
	logger         *zap.Logger
	api            API
	dial           Dialer
	registry       *callback.Registry
	jitter         func() float64
	metrics        *clientMetrics
	tracer         o11y.TracingProvider

	cursor    gateway.Cursor
	connected *signal
	armed     *signal
	queue     *operationQueue

	mu        sync.RWMutex
	ctx       context.Context
	transport Transport
	started   int32
	state     atomic.Int32

	meMu sync.Mutex
	me   map[string]any

	framesReceived atomic.Int64
	heartbeatsSent atomic.Int64
	heartbeatAcks  atomic.Int64
	callbacksFired atomic.Int64
	repliesSent    atomic.Int64
	repliesFailed  atomic.Int64
}

// Register binds a trigger on the client's registry. Registrations should
// happen before Run.
func (c *Client) Register(trigger string, owner any, handler callback.Handler, cooldown time.Duration) *callback.Callback {
	return c.registry.Register(trigger, owner, handler, cooldown)
}

func (c *Client) Registry() *callback.Registry {
	return c.registry
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(state State) {
	previous := State(c.state.Swap(int32(state)))
	if previous != state {
		c.logger.Info("Gateway state changed",
			zap.Stringer("from", previous),
			zap.Stringer("to", state))
	}
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	seq, ok := c.cursor.Value()
	return Stats{
		Session:        c.sessionID,
		State:          c.State(),
		Sequence:       seq,
		HasSequence:    ok,
		QueueDepth:     c.queue.Len(),
		FramesReceived: c.framesReceived.Load(),
		HeartbeatsSent: c.heartbeatsSent.Load(),
		HeartbeatAcks:  c.heartbeatAcks.Load(),
		CallbacksFired: c.callbacksFired.Load(),
		RepliesSent:    c.repliesSent.Load(),
		RepliesFailed:  c.repliesFailed.Load(),
	}
}

// Run connects to the gateway and processes events until ctx is cancelled
// or a fatal error occurs. The lifecycle, intake and dispatch stages run
// concurrently; the first one to fail stops the others and its error is
// returned.
func (c *Client) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		return fmt.Errorf("client is already started")
	}

	group, ctx := errgroup.WithContext(ctx)

	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	group.Go(func() error { return c.connect(ctx) })
	group.Go(func() error { return c.intake(ctx) })
	group.Go(func() error { return c.dispatch(ctx) })

	err := group.Wait()

	c.close()
	c.setState(StateClosed)

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("Gateway client stopped", zap.Error(err))
	} else {
		c.logger.Info("Gateway client stopped")
	}
	return err
}

func (c *Client) runContext() context.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

func (c *Client) currentTransport() Transport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.transport
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		if err := c.transport.Close(); err != nil {
			c.logger.Debug("Failed to close transport", zap.Error(err))
		}
		c.transport = nil
	}
}

func (c *Client) send(ctx context.Context, op *gateway.Operation) error {
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", op.Kind, err)
	}

	transport := c.currentTransport()
	if transport == nil {
		return &gateway.ConnectionError{Stage: "send", Err: errNotConnected}
	}

	c.logger.Debug("Sending gateway operation", zap.Stringer("op", op.Op))

	if err := transport.Send(ctx, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &gateway.ConnectionError{Stage: "send", Err: err}
	}
	return nil
}

func (c *Client) receive(ctx context.Context) ([]byte, error) {
	transport := c.currentTransport()
	if transport == nil {
		return nil, &gateway.ConnectionError{Stage: "receive", Err: errNotConnected}
	}

	data, err := transport.Receive(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &gateway.ConnectionError{Stage: "receive", Err: err}
	}

	c.framesReceived.Add(1)
	c.metrics.recordFrameReceived(ctx, c.queue.Len())
	c.logger.Debug("Received gateway frame", zap.ByteString("frame", data))

	return data, nil
}
