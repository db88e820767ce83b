package main

import (
	"github.com/spf13/cobra"

	"github.com/autovitrine/marketplace/internal/store/migrations"
	"github.com/autovitrine/marketplace/pkg/pg"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			pool, err := pg.Connect(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			return pg.Migrate(cmd.Context(), pool, migrations.FS, migrations.Dir, cfg.DB, log)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the state of every migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger(cfg)
			pool, err := pg.Connect(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			return pg.MigrationStatus(cmd.Context(), pool, migrations.FS, migrations.Dir, cfg.DB, log)
		},
	})
	return cmd
}
