package db

import (
	"fmt"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureLineageIndexes adds the Postgres-only partial indexes behind the
// unsubmit lookup and the aging feed.
func EnsureLineageIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_submission_user_awaiting
		ON submission (user_id, created_at DESC)
		WHERE state IN ('pending', 'needs_input');
	`).Error; err != nil {
		return fmt.Errorf("create idx_submission_user_awaiting: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_submission_aging
		ON submission (created_at)
		WHERE state IN ('pending', 'needs_input') AND nit_count > 0;
	`).Error; err != nil {
		return fmt.Errorf("create idx_submission_aging: %w", err)
	}
	return nil
}

// Migrate runs AutoMigrate and, on Postgres, the partial indexes.
func (s *PostgresService) Migrate() error {
	if err := AutoMigrateAll(s.db); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if s.driver == DriverPostgres {
		if err := EnsureLineageIndexes(s.db); err != nil {
			return err
		}
	}
	return nil
}
