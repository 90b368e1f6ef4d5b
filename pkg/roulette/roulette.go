// Package roulette is the minigame played through the gateway: players pull
// the trigger with !roulette and check their score with !points.
package roulette

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/gweinbach/roulette/pkg/gateway"
	"github.com/gweinbach/roulette/pkg/gateway/callback"
	"github.com/gweinbach/roulette/pkg/o11y"
	"github.com/gweinbach/roulette/pkg/store"
	"go.uber.org/zap"
)

const scoreKeyFormat = "roulette.%s"

// ScoreKey is the store key holding a player's points.
func ScoreKey(userID string) string {
	return fmt.Sprintf(scoreKeyFormat, userID)
}

// Options are the rules of the game.
type Options struct {
	RouletteTrigger string
	PointsTrigger   string
	Cooldown        time.Duration
	PointsCooldown  time.Duration
	// Bullets is the number of empty chambers; one round in Bullets+1 is
	// deadly.
	Bullets      int
	WinReward    int64
	DeathPenalty int64
	Suspense     time.Duration
}

func DefaultOptions() Options {
	return Options{
		RouletteTrigger: "!roulette",
		PointsTrigger:   "!points",
		Cooldown:        time.Hour,
		PointsCooldown:  0,
		Bullets:         6,
		WinReward:       1,
		DeathPenalty:    3,
		Suspense:        3 * time.Second,
	}
}

// Registrar accepts trigger registrations. *client.Client and
// *callback.Registry both implement it.
type Registrar interface {
	Register(trigger string, owner any, handler callback.Handler, cooldown time.Duration) *callback.Callback
}

type Game struct {
	store  store.IntStore
	opts   Options
	logger *zap.Logger
	intN   func(n int) int
	sleep  func(ctx context.Context, d time.Duration) error
	rounds o11y.Counter
}

// New creates a game that keeps scores in s.
func New(s store.IntStore, opts Options, logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{
		store:  s,
		opts:   opts,
		logger: logger,
		intN:   rand.IntN,
		sleep:  sleepContext,
	}
}

// WithRandom replaces the chamber draw. intN(n) must return a value in
// [0, n).
func (g *Game) WithRandom(intN func(n int) int) *Game {
	g.intN = intN
	return g
}

func (g *Game) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Game {
	g.sleep = sleep
	return g
}

func (g *Game) WithMetricsProvider(provider o11y.MetricsProvider) *Game {
	if provider != nil {
		g.rounds = provider.Counter("roulette.rounds")
	}
	return g
}

func (g *Game) Options() Options {
	return g.opts
}

// Register binds the game's triggers.
func (g *Game) Register(r Registrar) {
	r.Register(g.opts.RouletteTrigger, g, g.Roulette, g.opts.Cooldown)
	r.Register(g.opts.PointsTrigger, g, g.Points, g.opts.PointsCooldown)
}

// Roulette plays one round for the message author.
func (g *Game) Roulette(ctx context.Context, msg *gateway.Message) {
	mention := msg.Author.Mention()
	key := ScoreKey(msg.Author.ID)

	msg.Respond(fmt.Sprintf("😣🔫 %s places the muzzle against their head...", mention))

	if err := g.sleep(ctx, g.opts.Suspense); err != nil {
		g.logger.Debug("Round interrupted", zap.String("user", msg.Author.ID), zap.Error(err))
		return
	}

	if g.intN(g.opts.Bullets+1) == 0 {
		score, err := g.store.DecrementInt(ctx, key, g.opts.DeathPenalty)
		if err != nil {
			g.logger.Error("Failed to update score", zap.String("key", key), zap.Error(err))
			return
		}
		g.record(ctx, "death")
		g.logger.Info("Player died", zap.String("user", msg.Author.ID), zap.Int64("score", score))
		msg.Respond(fmt.Sprintf("☠ %s dies and loses %d!", mention, g.opts.DeathPenalty))
		return
	}

	score, err := g.store.IncrementInt(ctx, key, g.opts.WinReward)
	if err != nil {
		g.logger.Error("Failed to update score", zap.String("key", key), zap.Error(err))
		return
	}
	g.record(ctx, "win")
	g.logger.Info("Player survived", zap.String("user", msg.Author.ID), zap.Int64("score", score))
	msg.Respond(fmt.Sprintf("🥵 %s lives and wins **%d points**!", mention, g.opts.WinReward))
}

// Points reports the author's score.
func (g *Game) Points(ctx context.Context, msg *gateway.Message) {
	key := ScoreKey(msg.Author.ID)

	points, err := g.store.GetInt(ctx, key, 0)
	if err != nil {
		g.logger.Error("Failed to read score", zap.String("key", key), zap.Error(err))
		return
	}

	msg.Respond(fmt.Sprintf("%s, you have **%d points**!", msg.Author.Mention(), points))
}

func (g *Game) record(ctx context.Context, outcome string) {
	if g.rounds != nil {
		g.rounds.Add(ctx, 1, o11y.Label{Key: "outcome", Value: outcome})
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
