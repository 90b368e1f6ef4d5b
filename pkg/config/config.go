// Package config builds a runnable bot from HCL configuration files.
//
// A configuration is made of blocks:
//
//	gateway { token = env.ROULETTE_TOKEN }
//	store "scores" { type = "sqlite" path = "scores.db" }
//	roulette "main" { store = store.scores }
//	status "hourly" { schedule = "@hourly" }
//
// Blocks are processed in dependency order, so a roulette block may appear
// before the store it references.
package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gweinbach/roulette/pkg/gateway/client"
	"github.com/gweinbach/roulette/pkg/gateway/rest"
	"github.com/gweinbach/roulette/pkg/o11y"
	"github.com/gweinbach/roulette/pkg/roulette"
	"github.com/gweinbach/roulette/pkg/store"
	"github.com/hashicorp/hcl/v2"
	"github.com/robfig/cron/v3"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"go.uber.org/zap"
)

type ConfigBuilder struct {
	logger        *zap.Logger
	sources       []any
	baseDir       string
	blockHandlers map[string]BlockHandler
}

type Config struct {
	Logger    *zap.Logger
	Functions map[string]function.Function
	Constants map[string]cty.Value
	evalCtx   *hcl.EvalContext

	Gateway *GatewaySettings

	StoreCapsuleType cty.Type
	CtyStoreMap      map[string]cty.Value
	Stores           map[string]store.IntStore

	Games map[string]*roulette.Game
	Crons map[string]*cron.Cron

	mu     sync.RWMutex
	client *client.Client
}

func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		sources:       make([]any, 0),
		baseDir:       ".",
		blockHandlers: GetBlockHandlers(),
	}
}

func (cb *ConfigBuilder) WithLogger(logger *zap.Logger) *ConfigBuilder {
	cb.logger = logger
	return cb
}

func (cb *ConfigBuilder) WithSources(sources ...any) *ConfigBuilder {
	cb.sources = append(cb.sources, sources...)
	return cb
}

// WithBaseDir sets the directory that file() resolves relative paths against.
func (cb *ConfigBuilder) WithBaseDir(dir string) *ConfigBuilder {
	if dir != "" {
		cb.baseDir = dir
	}
	return cb
}

func (cb *ConfigBuilder) Build() (*Config, hcl.Diagnostics) {
	if cb.logger == nil {
		cb.logger = zap.NewNop()
	}

	config := &Config{
		Logger:    cb.logger,
		Constants: make(map[string]cty.Value),
		Stores:    make(map[string]store.IntStore),
		Games:     make(map[string]*roulette.Game),
		Crons:     make(map[string]*cron.Cron),
	}

	bodies, diags := ParseConfigFiles(cb.sources...)
	if diags.HasErrors() {
		return nil, diags
	}

	config.Functions = GetFunctions(cb.baseDir, config.Logger)

	blocks, addDiags := cb.GetBlocks(bodies)
	diags = diags.Extend(addDiags)
	if diags.HasErrors() {
		return nil, diags
	}

	config.Constants["env"] = GetEnvObject()

	config.evalCtx = &hcl.EvalContext{
		Functions: config.Functions,
		Variables: config.Constants,
	}

	// Preprocess blocks

	for _, block := range blocks {
		if handler, ok := cb.blockHandlers[block.Type]; ok {
			diags = diags.Extend(handler.Preprocess(block))
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	for _, handler := range cb.sortedHandlers() {
		diags = diags.Extend(handler.FinishPreprocessing(config))
	}
	if diags.HasErrors() {
		config.Close()
		return nil, diags
	}

	blocks, sortDiags := cb.SortBlocksByDependencies(blocks)
	diags = diags.Extend(sortDiags)
	if diags.HasErrors() {
		config.Close()
		return nil, diags
	}

	// Process blocks

	for _, block := range blocks {
		if handler, ok := cb.blockHandlers[block.Type]; ok {
			diags = diags.Extend(handler.Process(config, block))
		}
	}

	for _, handler := range cb.sortedHandlers() {
		diags = diags.Extend(handler.FinishProcessing(config))
	}

	if diags.HasErrors() {
		config.Close()
		return nil, diags
	}

	config.Logger.Info("Config built successfully",
		zap.Int("stores", len(config.Stores)),
		zap.Int("games", len(config.Games)),
		zap.Int("crons", len(config.Crons)))

	return config, diags
}

// sortedHandlers returns the handlers in block type order so that the
// finishing hooks run deterministically.
func (cb *ConfigBuilder) sortedHandlers() []BlockHandler {
	types := make([]string, 0, len(cb.blockHandlers))
	for blockType := range cb.blockHandlers {
		types = append(types, blockType)
	}
	sort.Strings(types)

	handlers := make([]BlockHandler, 0, len(types))
	for _, blockType := range types {
		handlers = append(handlers, cb.blockHandlers[blockType])
	}
	return handlers
}

// BuildClient creates the gateway client described by the gateway block and
// registers every configured game on it.
func (c *Config) BuildClient(metrics o11y.MetricsProvider, tracer o11y.TracingProvider) (*client.Client, error) {
	settings := c.Gateway
	if settings == nil {
		return nil, fmt.Errorf("no gateway configured")
	}

	api, err := rest.NewClient().
		WithToken(settings.Token).
		WithBaseURL(settings.APIBaseURL).
		WithAPIVersion(settings.APIVersion).
		WithUserAgent(settings.UserAgentURL, settings.UserAgentVersion).
		WithLogger(c.Logger).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build REST client: %w", err)
	}

	gatewayClient, err := client.NewClient().
		WithToken(settings.Token).
		WithIntents(settings.Intents).
		WithGatewayVersion(settings.GatewayVersion).
		WithDialTimeout(settings.DialTimeout).
		WithReadLimit(settings.ReadLimit).
		WithAPI(api).
		WithLogger(c.Logger).
		WithMetricsProvider(metrics).
		WithTracingProvider(tracer).
		Build()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(c.Games))
	for name := range c.Games {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		game := c.Games[name].WithMetricsProvider(metrics)
		game.Register(gatewayClient)
	}

	c.mu.Lock()
	c.client = gatewayClient
	c.mu.Unlock()

	return gatewayClient, nil
}

// Client returns the client created by BuildClient, if any.
func (c *Config) Client() *client.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.client
}

// StartCrons starts every status schedule.
func (c *Config) StartCrons() {
	for _, cronObj := range c.Crons {
		cronObj.Start()
	}
}

// Close stops the schedules and closes the stores.
func (c *Config) Close() error {
	for _, cronObj := range c.Crons {
		<-cronObj.Stop().Done()
	}

	var errs []error
	for name, s := range c.Stores {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
