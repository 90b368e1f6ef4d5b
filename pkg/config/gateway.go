package config

import (
	"fmt"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/gateway/client"
	"github.com/gweinbach/roulette/pkg/gateway/rest"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"go.uber.org/zap"
)

type GatewayDefinition struct {
	Token            string         `hcl:"token"`
	APIBaseURL       *string        `hcl:"api_base_url,optional"`
	APIVersion       *int           `hcl:"api_version,optional"`
	GatewayVersion   *int           `hcl:"gateway_version,optional"`
	Intents          []string       `hcl:"intents,optional"`
	DialTimeout      hcl.Expression `hcl:"dial_timeout,optional"`
	ReadLimit        *int64         `hcl:"read_limit,optional"`
	UserAgentURL     *string        `hcl:"user_agent_url,optional"`
	UserAgentVersion *string        `hcl:"user_agent_version,optional"`
	DefRange         hcl.Range      `hcl:",def_range"`
}

// GatewaySettings is the decoded gateway block with defaults applied.
type GatewaySettings struct {
	Token            string
	APIBaseURL       string
	APIVersion       int
	GatewayVersion   int
	Intents          gateway.Intent
	DialTimeout      time.Duration
	ReadLimit        int64
	UserAgentURL     string
	UserAgentVersion string
}

type GatewayBlockHandler struct {
	BlockHandlerBase

	blocks []*hcl.Block
}

func NewGatewayBlockHandler() *GatewayBlockHandler {
	return &GatewayBlockHandler{}
}

func (h *GatewayBlockHandler) Preprocess(block *hcl.Block) hcl.Diagnostics {
	h.blocks = append(h.blocks, block)
	return nil
}

func (h *GatewayBlockHandler) FinishPreprocessing(config *Config) hcl.Diagnostics {
	switch len(h.blocks) {
	case 0:
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Missing gateway block",
				Detail:   "Exactly one gateway block is required",
			},
		}
	case 1:
		return nil
	default:
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate gateway block",
				Detail:   fmt.Sprintf("Exactly one gateway block is allowed, found %d", len(h.blocks)),
				Subject:  &h.blocks[1].DefRange,
			},
		}
	}
}

func (h *GatewayBlockHandler) GetBlockDependencyId(block *hcl.Block) (string, hcl.Diagnostics) {
	return "gateway", nil
}

func (h *GatewayBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	gatewayDef := GatewayDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &gatewayDef)
	if diags.HasErrors() {
		return diags
	}

	settings, addDiags := h.BuildSettings(config, &gatewayDef)
	diags = diags.Extend(addDiags)
	if diags.HasErrors() {
		return diags
	}

	config.Gateway = settings
	config.Logger.Debug("Gateway configured",
		zap.String("api", settings.APIBaseURL),
		zap.Int("gateway_version", settings.GatewayVersion),
		zap.Strings("intents", settings.Intents.Names()))

	return diags
}

func (h *GatewayBlockHandler) BuildSettings(config *Config, def *GatewayDefinition) (*GatewaySettings, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	settings := &GatewaySettings{
		Token:          def.Token,
		APIBaseURL:     rest.DefaultBaseURL,
		APIVersion:     rest.DefaultAPIVersion,
		GatewayVersion: client.DefaultGatewayVersion,
		Intents:        gateway.DefaultIntents,
		ReadLimit:      client.DefaultReadLimit,
	}

	if def.Token == "" {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing token",
			Detail:   "The gateway token must not be empty",
			Subject:  &def.DefRange,
		})
	}

	if def.APIBaseURL != nil {
		settings.APIBaseURL = *def.APIBaseURL
	}
	if def.APIVersion != nil {
		settings.APIVersion = *def.APIVersion
	}
	if def.GatewayVersion != nil {
		settings.GatewayVersion = *def.GatewayVersion
	}
	if def.ReadLimit != nil {
		settings.ReadLimit = *def.ReadLimit
	}
	if def.UserAgentURL != nil {
		settings.UserAgentURL = *def.UserAgentURL
	}
	if def.UserAgentVersion != nil {
		settings.UserAgentVersion = *def.UserAgentVersion
	}

	if len(def.Intents) > 0 {
		intents, err := gateway.ParseIntents(def.Intents...)
		if err != nil {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid intents",
				Detail:   err.Error(),
				Subject:  &def.DefRange,
			})
		}
		settings.Intents = intents
	}

	dialTimeout, addDiags := config.durationOr(def.DialTimeout, client.DefaultDialTimeout)
	diags = diags.Extend(addDiags)
	settings.DialTimeout = dialTimeout

	return settings, diags
}
