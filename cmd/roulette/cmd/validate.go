package cmd

import (
	"fmt"

	"github.com/gweinbach/roulette/pkg/config"
	"github.com/hashicorp/hcl/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate [config-files-or-directories...]",
	Short: "Check configuration files",
	Long: `Parse and build the configuration without connecting to the gateway,
then print any diagnostics. Stores are opened, so file and Redis stores
must be reachable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	cfg, diags := config.NewConfig().
		WithLogger(logger).
		WithSources(stringSliceToAnySlice(args)...).
		Build()

	if len(diags) > 0 {
		writer := hcl.NewDiagnosticTextWriter(cmd.ErrOrStderr(), nil, 0, false)
		if err := writer.WriteDiagnostics(diags); err != nil {
			logger.Warn("Failed to print diagnostics", zap.Error(err))
		}
	}

	if diags.HasErrors() {
		return fmt.Errorf("configuration is invalid")
	}
	defer cfg.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid: %d store(s), %d game(s), %d status schedule(s)\n",
		len(cfg.Stores), len(cfg.Games), len(cfg.Crons))
	return nil
}
