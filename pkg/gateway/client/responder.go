package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/o11y"
	"go.uber.org/zap"
)

const replyTimestampLayout = "2006-01-02T15:04:05.000000+00:00"

// RespondWith sends text as a reply to the message carried by original. The
// call returns immediately; delivery failures are logged.
func (c *Client) RespondWith(text string, original *gateway.Operation) {
	payload := buildReply(text, original, time.Now())
	go func() {
		_ = c.deliver(c.runContext(), payload)
	}()
}

// buildReply derives the reply from the original event payload, which is
// copied and never modified.
func buildReply(text string, original *gateway.Operation, now time.Time) map[string]any {
	request := original.EventData()

	reply := gateway.DeepCopyMap(request)
	reply["id"] = nil
	reply["timestamp"] = now.UTC().Format(replyTimestampLayout)
	reply["content"] = text
	reply["referenced_message"] = gateway.DeepCopyMap(request)
	reply["message_reference"] = map[string]any{
		"message_id": request["id"],
	}
	reply["type"] = int(gateway.MessageTypeReply)

	return reply
}

func (c *Client) deliver(ctx context.Context, payload map[string]any) error {
	channelID := gateway.AsString(payload["channel_id"])
	if channelID == "" {
		channelID = "0"
	}

	ctx, span := o11y.StartSpan(ctx, c.tracer, "gateway.reply")
	defer span.End()
	span.SetAttributes(o11y.Label{Key: "channel", Value: channelID})

	start := time.Now()
	err := c.createReply(ctx, channelID, payload)
	c.metrics.recordReply(ctx, time.Since(start), err)

	if err != nil {
		c.repliesFailed.Add(1)
		span.SetStatus(o11y.SpanStatusError, err.Error())
		c.logger.Error("Failed to deliver reply", zap.String("channel", channelID), zap.Error(err))
		return err
	}

	c.repliesSent.Add(1)
	span.SetStatus(o11y.SpanStatusOK, "")
	c.logger.Debug("Reply delivered", zap.String("channel", channelID))
	return nil
}

func (c *Client) createReply(ctx context.Context, channelID string, payload map[string]any) error {
	me, err := c.currentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch reply author: %w", err)
	}
	payload["author"] = me

	return c.api.CreateMessage(ctx, channelID, payload)
}

// currentUser caches the bot's user object after the first successful fetch.
func (c *Client) currentUser(ctx context.Context) (map[string]any, error) {
	c.meMu.Lock()
	defer c.meMu.Unlock()

	if c.me == nil {
		me, err := c.api.CurrentUser(ctx)
		if err != nil {
			return nil, err
		}
		c.me = me
	}
	return gateway.DeepCopyMap(c.me), nil
}
