package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/todo-api/internal/config"
	"github.com/redmonkez12/todo-api/internal/database"
	"github.com/redmonkez12/todo-api/internal/logging"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(cfg.Server.IsDevelopment())

	if cfg.Database.Driver != config.DriverPostgres {
		logger.Info("nothing to migrate", "db_driver", cfg.Database.Driver)
		return nil
	}

	sqlDB, err := database.OpenPostgres(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(cmd.Context(), sqlDB); err != nil {
		return err
	}

	logger.Info("migrations applied")
	return nil
}
