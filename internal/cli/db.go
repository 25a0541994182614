package cli

import (
	"github.com/spf13/cobra"

	"github.com/khankhulgun/maplayers/database/migrations"
	"github.com/khankhulgun/maplayers/database/seeds"
	"github.com/khankhulgun/maplayers/logging"
)

func (c *CLI) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the overlay tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Migrate, cfg.Seed = false, false
			db, err := c.openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := migrations.Migrate(db); err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("migrated", "dialect", cfg.DBDialect)
			return nil
		},
	}
}

func (c *CLI) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default route overlay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			cfg.Seed = false
			db, err := c.openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := seeds.Seed(db); err != nil {
				return err
			}
			logging.FromContext(cmd.Context()).Info("seeded", "overlay", seeds.RouteID)
			return nil
		},
	}
}
