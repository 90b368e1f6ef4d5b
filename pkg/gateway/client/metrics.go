package client

import (
	"context"
	"time"

	"github.com/gweinbach/roulette/pkg/o11y"
)

// clientMetrics holds the instruments recorded by the client. A nil
// *clientMetrics records nothing.
type clientMetrics struct {
	framesReceived      o11y.Counter
	invalidOperations   o11y.Counter
	heartbeatsSent      o11y.Counter
	heartbeatAcks       o11y.Counter
	callbacksFired      o11y.Counter
	callbacksSuppressed o11y.Counter
	repliesSent         o11y.Counter
	repliesFailed       o11y.Counter
	replyDuration       o11y.Histogram
	queueDepth          o11y.Gauge
}

func newClientMetrics(provider o11y.MetricsProvider) *clientMetrics {
	if provider == nil {
		return nil
	}

	return &clientMetrics{
		framesReceived:      provider.Counter("gateway.frames.received"),
		invalidOperations:   provider.Counter("gateway.operations.invalid"),
		heartbeatsSent:      provider.Counter("gateway.heartbeats.sent"),
		heartbeatAcks:       provider.Counter("gateway.heartbeat.acks"),
		callbacksFired:      provider.Counter("gateway.callbacks.fired"),
		callbacksSuppressed: provider.Counter("gateway.callbacks.suppressed"),
		repliesSent:         provider.Counter("gateway.replies.sent"),
		repliesFailed:       provider.Counter("gateway.replies.failed"),
		replyDuration:       provider.Histogram("gateway.reply.duration"),
		queueDepth:          provider.Gauge("gateway.queue.depth"),
	}
}

func (m *clientMetrics) recordFrameReceived(ctx context.Context, queueDepth int) {
	if m == nil {
		return
	}
	m.framesReceived.Add(ctx, 1)
	m.queueDepth.Set(ctx, float64(queueDepth))
}

func (m *clientMetrics) recordInvalidOperation(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.invalidOperations.Add(ctx, 1, o11y.Label{Key: "reason", Value: reason})
}

func (m *clientMetrics) recordHeartbeat(ctx context.Context) {
	if m == nil {
		return
	}
	m.heartbeatsSent.Add(ctx, 1)
}

func (m *clientMetrics) recordHeartbeatAck(ctx context.Context) {
	if m == nil {
		return
	}
	m.heartbeatAcks.Add(ctx, 1)
}

func (m *clientMetrics) recordCallback(ctx context.Context, trigger string, fired bool) {
	if m == nil {
		return
	}
	label := o11y.Label{Key: "trigger", Value: trigger}
	if fired {
		m.callbacksFired.Add(ctx, 1, label)
	} else {
		m.callbacksSuppressed.Add(ctx, 1, label)
	}
}

func (m *clientMetrics) recordReply(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.replyDuration.Record(ctx, duration.Seconds())
	if err != nil {
		m.repliesFailed.Add(ctx, 1)
	} else {
		m.repliesSent.Add(ctx, 1)
	}
}
