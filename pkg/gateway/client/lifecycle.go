package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"go.uber.org/zap"
)

// connect walks the lifecycle from Connecting to Ready, then blocks on the
// heartbeat loop for as long as the connection lives.
func (c *Client) connect(ctx context.Context) error {
	c.setState(StateConnecting)

	url, err := c.api.GatewayURL(ctx, c.gatewayVersion)
	if err != nil {
		return &gateway.ConnectionError{Stage: "discover", Err: err}
	}

	transport, err := c.dial(ctx, url)
	if err != nil {
		return &gateway.ConnectionError{Stage: "dial", Err: err}
	}

	c.mu.Lock()
	c.transport = transport
	c.mu.Unlock()

	c.logger.Info("Connected to gateway", zap.String("url", url))

	c.setState(StateAwaitingHello)

	raw, err := c.receive(ctx)
	if err != nil {
		return err
	}
	hello, err := gateway.Expect(raw, &c.cursor, gateway.KindHello)
	if err != nil {
		return fmt.Errorf("awaiting hello: %w", err)
	}
	interval := hello.HeartbeatInterval()

	c.setState(StateIdentifying)

	heartbeatDone := make(chan error, 1)
	c.armed.Set()
	go func() {
		heartbeatDone <- c.heartbeat(ctx, interval)
	}()

	identify := gateway.NewIdentify(c.token, c.intents, c.properties)
	if err := c.send(ctx, identify); err != nil {
		return err
	}

	c.setState(StateAwaitingReady)

	raw, err = c.receive(ctx)
	if err != nil {
		return err
	}
	ready, err := gateway.Expect(raw, &c.cursor, gateway.KindDispatch)
	if err != nil {
		return fmt.Errorf("awaiting ready: %w", err)
	}

	c.logger.Info("Gateway session is ready",
		zap.String("event", string(ready.Event)),
		zap.Duration("heartbeat_interval", interval))

	c.setState(StateReady)
	c.connected.Set()

	return <-heartbeatDone
}

// heartbeat sends one Heartbeat per arming. The signal is set after Hello and
// by every dispatched HeartbeatAck, and cleared with each beat, so a server
// that stops acknowledging stops receiving beats.
func (c *Client) heartbeat(ctx context.Context, interval time.Duration) error {
	for {
		if err := c.armed.Wait(ctx); err != nil {
			return err
		}

		delay := time.Duration(float64(interval) * c.jitter())
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// Cleared before sending so an ack racing the send is not lost.
		c.armed.Clear()

		beat := gateway.NewHeartbeat(&c.cursor)
		if err := c.send(ctx, beat); err != nil {
			return err
		}

		c.heartbeatsSent.Add(1)
		c.metrics.recordHeartbeat(ctx)
		c.logger.Debug("Heartbeat sent", zap.Any("seq", beat.Data), zap.Duration("delay", delay))
	}
}
