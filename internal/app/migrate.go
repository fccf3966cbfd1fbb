package app

import (
	"fmt"

	"github.com/yungbote/appversion-backend/internal/data/db"
	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

// Migrate applies the schema and exits without serving.
func Migrate(opts Options) error {
	log, err := logger.New("development")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	cfg, err := LoadConfig(ResolveConfigPath(opts.ConfigPath), log)
	if err != nil {
		return err
	}
	dbService, err := db.NewService(log, cfg.DBOptions())
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer dbService.Close()

	if err := db.AutoMigrateAll(dbService.DB()); err != nil {
		return fmt.Errorf("db automigrate: %w", err)
	}
	log.Info("Migration complete", "db_driver", cfg.DB.Driver)
	return nil
}
