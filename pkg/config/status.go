package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type StatusDefinition struct {
	Name     string    `hcl:",label"`
	Schedule string    `hcl:"schedule"`
	Timezone string    `hcl:"timezone,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type StatusBlockHandler struct {
	BlockHandlerBase
}

func NewStatusBlockHandler() *StatusBlockHandler {
	return &StatusBlockHandler{}
}

func (h *StatusBlockHandler) GetBlockDependencyId(block *hcl.Block) (string, hcl.Diagnostics) {
	return "status." + block.Labels[0], nil
}

func (h *StatusBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	statusDef := StatusDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &statusDef)
	if diags.HasErrors() {
		return diags
	}

	statusDef.Name = block.Labels[0]

	cronObj, addDiags := h.BuildCron(config, &statusDef)
	diags = diags.Extend(addDiags)
	if diags.HasErrors() {
		return diags
	}

	config.Crons[statusDef.Name] = cronObj

	return diags
}

func (h *StatusBlockHandler) BuildCron(config *Config, statusDef *StatusDefinition) (*cron.Cron, hcl.Diagnostics) {
	cronParser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	if statusDef.Timezone == "" {
		statusDef.Timezone = "Local"
	}

	location, err := time.LoadLocation(statusDef.Timezone)
	if err != nil {
		return nil, hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid timezone",
				Detail:   fmt.Sprintf("Invalid timezone: %s", statusDef.Timezone),
				Subject:  &statusDef.DefRange,
			},
		}
	}

	cronObj := cron.New(
		cron.WithLogger(NewZapCronLogger(config.Logger)),
		cron.WithParser(cronParser),
		cron.WithLocation(location),
	)

	job := &StatusJob{config: config, name: statusDef.Name}
	if _, err := cronObj.AddJob(statusDef.Schedule, job); err != nil {
		return nil, hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid schedule",
				Detail:   fmt.Sprintf("Invalid schedule %q: %s", statusDef.Schedule, err),
				Subject:  &statusDef.DefRange,
			},
		}
	}

	return cronObj, nil
}

// StatusJob logs a snapshot of the gateway client's counters.
type StatusJob struct {
	config *Config
	name   string
}

func (j *StatusJob) Run() {
	logger := j.config.Logger.With(zap.String("status", j.name))

	c := j.config.Client()
	if c == nil {
		logger.Info("Gateway status", zap.String("state", "not started"))
		return
	}

	stats := c.Stats()
	fields := []zap.Field{
		zap.String("session", stats.Session),
		zap.Stringer("state", stats.State),
		zap.Int("queue_depth", stats.QueueDepth),
		zap.Int64("frames_received", stats.FramesReceived),
		zap.Int64("heartbeats_sent", stats.HeartbeatsSent),
		zap.Int64("heartbeat_acks", stats.HeartbeatAcks),
		zap.Int64("callbacks_fired", stats.CallbacksFired),
		zap.Int64("replies_sent", stats.RepliesSent),
		zap.Int64("replies_failed", stats.RepliesFailed),
	}
	if stats.HasSequence {
		fields = append(fields, zap.Int64("sequence", stats.Sequence))
	}

	logger.Info("Gateway status", fields...)
}

// ZapCronLogger adapts a zap.Logger to the cron.Logger interface
type ZapCronLogger struct {
	logger *zap.Logger
}

func NewZapCronLogger(logger *zap.Logger) *ZapCronLogger {
	return &ZapCronLogger{logger: logger}
}

// Info logs cron's routine messages at debug level
func (z *ZapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	z.logger.Debug(msg, keyValueFields(keysAndValues)...)
}

func (z *ZapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append([]zap.Field{zap.Error(err)}, keyValueFields(keysAndValues)...)
	z.logger.Error(msg, fields...)
}

func keyValueFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		}
	}
	return fields
}
