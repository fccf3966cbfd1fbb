package db

import (
	"fmt"

	types "github.com/yungbote/appversion-backend/internal/domain"
	"gorm.io/gorm"
)

// singleActiveIndexSQL backs the "at most one active version" invariant.
// Partial indexes are supported by both postgres and sqlite.
const singleActiveIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS uniq_version_record_single_active ON version_record (is_active) WHERE is_active`

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.VersionRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	// Keep only the newest active row so the unique index can be built over legacy data.
	if err := db.Exec(
		`UPDATE version_record SET is_active = ? WHERE is_active = ? AND id <> (SELECT id FROM version_record WHERE is_active = ? ORDER BY created_at DESC LIMIT 1)`,
		false, true, true,
	).Error; err != nil {
		return fmt.Errorf("repair active version records: %w", err)
	}
	if err := db.Exec(singleActiveIndexSQL).Error; err != nil {
		return fmt.Errorf("create single-active index: %w", err)
	}
	return nil
}
