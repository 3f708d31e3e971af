package cmd

import (
	"github.com/spf13/cobra"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/storage/postgres"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "run the slot table migrations for the sqlite and postgres backends",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	lg := initLogger(cfg)

	driver := cfg.Storage.Driver
	if driver != internal.StorageSQLite && driver != internal.StoragePostgres {
		lg.Info("nothing to migrate", "driver", driver)
		return nil
	}

	db, err := postgres.Open(postgres.Options{
		Driver:       driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	if err := postgres.Migrate(cmd.Context(), db, driver, migrateRollback); err != nil {
		return err
	}
	lg.Info("migration finished", "driver", driver, "rollback", migrateRollback)
	return nil
}
