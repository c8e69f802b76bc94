package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/db"
	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/trading"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load trading results from a JSON file",
		Long: `Validates a JSON array of trading results against the import schema and
inserts it in a single transaction. Cached responses are left untouched and
pick up the new rows after the next cutoff.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			trades, err := trading.ParseImport(doc)
			if err != nil {
				return err
			}

			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			conn, err := db.Connect(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			if _, err := db.Migrate(cmd.Context(), conn, logger); err != nil {
				return err
			}

			loc, _ := cfg.Cache.Location()
			svc := trading.NewService(trading.NewRepository(conn), loc, nil)
			n, err := svc.Import(cmd.Context(), trades)
			if err != nil {
				return err
			}
			logger.Info().Int("count", n).Str("file", args[0]).Msg("trading results imported")
			cmd.Printf("imported %d trade(s)\n", n)
			return nil
		},
	}
}
