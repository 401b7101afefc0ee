package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"account-service/internal/config"
	"account-service/internal/db"
	"account-service/internal/logging"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the accounts and messages tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.envFiles()...)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			database, err := db.Connect(cmd.Context(), cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("connect to db: %w", err)
			}
			defer database.Close()

			if err := db.Migrate(cmd.Context(), database); err != nil {
				return err
			}
			log.WithField("driver", cfg.DBDriver).Info("schema migrated")
			return nil
		},
	}
}
