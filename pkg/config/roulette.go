package config

import (
	"fmt"

	"github.com/gweinbach/roulette/pkg/roulette"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"go.uber.org/zap"
)

type RouletteDefinition struct {
	Name            string         `hcl:",label"`
	Store           hcl.Expression `hcl:"store,optional"`
	RouletteTrigger *string        `hcl:"roulette_trigger,optional"`
	PointsTrigger   *string        `hcl:"points_trigger,optional"`
	Cooldown        hcl.Expression `hcl:"cooldown,optional"`
	PointsCooldown  hcl.Expression `hcl:"points_cooldown,optional"`
	Bullets         *int           `hcl:"bullets,optional"`
	WinReward       *int64         `hcl:"win_reward,optional"`
	DeathPenalty    *int64         `hcl:"death_penalty,optional"`
	Suspense        hcl.Expression `hcl:"suspense,optional"`
	DefRange        hcl.Range      `hcl:",def_range"`
}

type RouletteBlockHandler struct {
	BlockHandlerBase
}

func NewRouletteBlockHandler() *RouletteBlockHandler {
	return &RouletteBlockHandler{}
}

func (h *RouletteBlockHandler) GetBlockDependencyId(block *hcl.Block) (string, hcl.Diagnostics) {
	return "roulette." + block.Labels[0], nil
}

// GetBlockDependencies returns the stores the block references, or the
// default store when it references none.
func (h *RouletteBlockHandler) GetBlockDependencies(block *hcl.Block) ([]string, hcl.Diagnostics) {
	deps := referencesInNamespace(block.Body, "store")
	if len(deps) == 0 {
		deps = append(deps, "store."+DefaultStoreName)
	}
	return deps, nil
}

func (h *RouletteBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	rouletteDef := RouletteDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &rouletteDef)
	if diags.HasErrors() {
		return diags
	}

	rouletteDef.Name = block.Labels[0]

	game, addDiags := h.BuildGame(config, &rouletteDef)
	diags = diags.Extend(addDiags)
	if diags.HasErrors() {
		return diags
	}

	config.Games[rouletteDef.Name] = game

	return diags
}

func (h *RouletteBlockHandler) BuildGame(config *Config, def *RouletteDefinition) (*roulette.Game, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	s, addDiags := GetStoreFromExpression(config, def.Store, &def.DefRange)
	diags = diags.Extend(addDiags)

	opts := roulette.DefaultOptions()

	if def.RouletteTrigger != nil {
		opts.RouletteTrigger = *def.RouletteTrigger
	}
	if def.PointsTrigger != nil {
		opts.PointsTrigger = *def.PointsTrigger
	}
	if opts.RouletteTrigger == "" || opts.PointsTrigger == "" {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid trigger",
			Detail:   "Triggers must not be empty",
			Subject:  &def.DefRange,
		})
	}
	if opts.RouletteTrigger == opts.PointsTrigger {
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid trigger",
			Detail:   fmt.Sprintf("roulette_trigger and points_trigger are both %q", opts.RouletteTrigger),
			Subject:  &def.DefRange,
		})
	}

	if def.Bullets != nil {
		if *def.Bullets < 0 {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid bullets",
				Detail:   "bullets must not be negative",
				Subject:  &def.DefRange,
			})
		}
		opts.Bullets = *def.Bullets
	}
	if def.WinReward != nil {
		opts.WinReward = *def.WinReward
	}
	if def.DeathPenalty != nil {
		opts.DeathPenalty = *def.DeathPenalty
	}

	var durDiags hcl.Diagnostics
	opts.Cooldown, durDiags = config.durationOr(def.Cooldown, opts.Cooldown)
	diags = diags.Extend(durDiags)
	opts.PointsCooldown, durDiags = config.durationOr(def.PointsCooldown, opts.PointsCooldown)
	diags = diags.Extend(durDiags)
	opts.Suspense, durDiags = config.durationOr(def.Suspense, opts.Suspense)
	diags = diags.Extend(durDiags)

	if diags.HasErrors() {
		return nil, diags
	}

	logger := config.Logger.With(zap.String("game", def.Name))
	logger.Debug("Game configured",
		zap.String("roulette_trigger", opts.RouletteTrigger),
		zap.String("points_trigger", opts.PointsTrigger),
		zap.Duration("cooldown", opts.Cooldown),
		zap.Int("bullets", opts.Bullets))

	return roulette.New(s, opts, logger), diags
}
