package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gweinbach/roulette/pkg/config"
	"github.com/gweinbach/roulette/pkg/o11y"
	"github.com/gweinbach/roulette/pkg/otel"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [config-files-or-directories...]",
	Short: "Connect to the gateway and play",
	Long: `Load the configuration, connect to the gateway and answer commands
until interrupted.

Configuration is read from .rcl files and directories containing them.

Examples:
  roulette run bot.rcl
  roulette run ./configs/
  roulette run gateway.rcl games.rcl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBot,
}

var (
	logLevel  string
	telemetry bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&telemetry, "telemetry", false, "send metrics and traces to the globally registered OpenTelemetry providers (no-op unless an SDK is installed)")
}

func runBot(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting roulette",
		zap.String("version", Version),
		zap.Strings("config-paths", args),
		zap.String("log-level", logLevel),
	)

	cfg, diags := config.NewConfig().
		WithLogger(logger).
		WithSources(stringSliceToAnySlice(args)...).
		Build()

	if diags.HasErrors() {
		logger.Error("Failed to build config", zap.Error(diags))
		return diags
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			logger.Warn("Failed to close config", zap.Error(err))
		}
	}()

	metrics, tracer := telemetryProviders(telemetry, logger)

	client, err := cfg.BuildClient(metrics, tracer)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.StartCrons()

	err = client.Run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("Shutting down")
		return nil
	}
	return err
}

// telemetryProviders returns nil providers when telemetry is off. When it is
// on, instruments go through the global OpenTelemetry providers, which this
// binary leaves unset; an embedding program registers an SDK to export them.
func telemetryProviders(enabled bool, logger *zap.Logger) (o11y.MetricsProvider, o11y.TracingProvider) {
	if !enabled {
		return nil, nil
	}

	logger.Info("Telemetry uses the global OpenTelemetry providers; nothing is exported unless an SDK is registered")
	provider := otel.NewProvider("roulette", Version, logger)
	return provider, provider
}

func setupLogger() (*zap.Logger, error) {
	level := logLevel

	if GetDebug() {
		level = "debug"
	} else if GetVerbose() && level == "info" {
		level = "debug"
	}

	var zapLevel zap.AtomicLevel
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn", "warning":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zapLevel
	zapConfig.Development = GetDebug()

	return zapConfig.Build()
}

func stringSliceToAnySlice(strs []string) []any {
	anys := make([]any, len(strs))
	for i, s := range strs {
		anys[i] = s
	}
	return anys
}
