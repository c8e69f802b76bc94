package cli

import (
	"github.com/spf13/cobra"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}

			conn, err := db.Connect(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			applied, err := db.Migrate(cmd.Context(), conn, logger)
			if err != nil {
				return err
			}
			cmd.Printf("applied %d migration(s)\n", applied)
			return nil
		},
	}
}
