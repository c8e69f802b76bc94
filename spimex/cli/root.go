// Package cli implements the spimex command line.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
)

// NewRootCmd creates the root command with the serve, migrate and import subcommands.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "spimex",
		Short:         "SPIMEX trading results service",
		Long:          "Serves SPIMEX oil trading results over HTTP with a response cache that expires at a daily cutoff.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a yaml config file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newImportCmd())
	return cmd
}

// loadRuntime reads the configuration and builds the logger for a command.
func loadRuntime(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Level = "debug"
	}
	logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr()).
		With().Str("mode", cfg.Mode).Logger()
	return cfg, logger, nil
}
