package client

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/gateway/callback"
	"github.com/gweinbach/roulette/pkg/gateway/rest"
	"github.com/gweinbach/roulette/pkg/o11y"
	"go.uber.org/zap"
)

const (
	DefaultGatewayVersion = 9
	DefaultDialTimeout    = 30 * time.Second
	// DefaultReadLimit leaves room for large READY payloads.
	DefaultReadLimit = 4 << 20
)

// ClientBuilder provides a fluent interface for building gateway clients.
type ClientBuilder struct {
	token          string
	intents        gateway.Intent
	gatewayVersion int
	properties     gateway.ConnectionProperties
	dialTimeout    time.Duration
	readLimit      int64
	logger         *zap.Logger
	api            API
	dialer         Dialer
	registry       *callback.Registry
	jitter         func() float64
	metrics        o11y.MetricsProvider
	tracer         o11y.TracingProvider
}

// NewClient creates a new gateway client builder.
func NewClient() *ClientBuilder {
	return &ClientBuilder{
		intents:        gateway.DefaultIntents,
		gatewayVersion: DefaultGatewayVersion,
		properties:     gateway.DefaultConnectionProperties(),
		dialTimeout:    DefaultDialTimeout,
		readLimit:      DefaultReadLimit,
		logger:         zap.NewNop(),
		jitter:         rand.Float64,
	}
}

// WithToken sets the bot token sent in Identify and REST calls.
func (b *ClientBuilder) WithToken(token string) *ClientBuilder {
	b.token = token
	return b
}

func (b *ClientBuilder) WithIntents(intents gateway.Intent) *ClientBuilder {
	b.intents = intents
	return b
}

func (b *ClientBuilder) WithGatewayVersion(version int) *ClientBuilder {
	if version > 0 {
		b.gatewayVersion = version
	}
	return b
}

func (b *ClientBuilder) WithProperties(properties gateway.ConnectionProperties) *ClientBuilder {
	b.properties = properties
	return b
}

// WithDialTimeout sets the timeout for establishing the WebSocket connection.
func (b *ClientBuilder) WithDialTimeout(timeout time.Duration) *ClientBuilder {
	if timeout > 0 {
		b.dialTimeout = timeout
	}
	return b
}

// WithReadLimit caps the size of a received frame in bytes.
func (b *ClientBuilder) WithReadLimit(limit int64) *ClientBuilder {
	if limit > 0 {
		b.readLimit = limit
	}
	return b
}

// WithLogger sets the logger for the client.
func (b *ClientBuilder) WithLogger(logger *zap.Logger) *ClientBuilder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// WithAPI replaces the REST client built from the token.
func (b *ClientBuilder) WithAPI(api API) *ClientBuilder {
	b.api = api
	return b
}

// WithDialer replaces the WebSocket dialer.
func (b *ClientBuilder) WithDialer(dialer Dialer) *ClientBuilder {
	b.dialer = dialer
	return b
}

// WithRegistry sets the callback registry. A fresh registry is used when
// none is given.
func (b *ClientBuilder) WithRegistry(registry *callback.Registry) *ClientBuilder {
	b.registry = registry
	return b
}

// WithJitter sets the source of the heartbeat jitter factor, which must
// return values in [0, 1).
func (b *ClientBuilder) WithJitter(jitter func() float64) *ClientBuilder {
	if jitter != nil {
		b.jitter = jitter
	}
	return b
}

func (b *ClientBuilder) WithMetricsProvider(provider o11y.MetricsProvider) *ClientBuilder {
	b.metrics = provider
	return b
}

func (b *ClientBuilder) WithTracingProvider(provider o11y.TracingProvider) *ClientBuilder {
	b.tracer = provider
	return b
}

// IsValid checks that all required configuration is present.
func (b *ClientBuilder) IsValid() error {
	if b.token == "" {
		return fmt.Errorf("token is required")
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.dialTimeout <= 0 {
		b.dialTimeout = DefaultDialTimeout
	}
	return nil
}

// Build creates and returns a new gateway client with the configured options.
func (b *ClientBuilder) Build() (*Client, error) {
	if err := b.IsValid(); err != nil {
		return nil, err
	}

	sessionID := uuid.NewString()
	logger := b.logger.With(zap.String("session", sessionID))

	api := b.api
	if api == nil {
		restClient, err := rest.NewClient().
			WithToken(b.token).
			WithLogger(logger).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build REST client: %w", err)
		}
		api = restClient
	}

	dialer := b.dialer
	if dialer == nil {
		dialer = WebSocketDialer(b.dialTimeout, b.readLimit, nil)
	}

	registry := b.registry
	if registry == nil {
		registry = callback.NewRegistry(logger)
	}

	return &Client{
		token:          b.token,
		intents:        b.intents,
		gatewayVersion: b.gatewayVersion,
		properties:     b.properties,
		sessionID:      sessionID,
		logger:         logger,
		api:            api,
		dial:           dialer,
		registry:       registry,
		jitter:         b.jitter,
		metrics:        newClientMetrics(b.metrics),
		tracer:         b.tracer,
		connected:      newSignal(),
		armed:          newSignal(),
		queue:          newOperationQueue(),
	}, nil
}
