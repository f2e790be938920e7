package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes beyond what AutoMigrate creates.
// Index existence checks use pg_indexes, so this only runs on Postgres.
func AddIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Membership resolution: all memberships for a user in stable order
		{"org_members", "idx_org_members_user_created", "user_id, created_at, id"},
		{"org_members", "idx_org_members_organization_id", "organization_id"},

		// Employee lookups by identity and by organization
		{"employees", "idx_employees_user_id", "user_id"},
		{"employees", "idx_employees_organization_id", "organization_id"},

		// Auth user lookups by email happen on every login
		{"auth_users", "idx_auth_users_email", "email"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
