package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Partial unique indexes gorm tags cannot express. They are the storage-level
// half of the pairing and match-request uniqueness guarantees, and are valid
// on both Postgres and SQLite.
var partialIndexes = []struct {
	name string
	sql  string
}{
	{
		name: "uidx_couples_active_pair",
		sql:  `CREATE UNIQUE INDEX IF NOT EXISTS uidx_couples_active_pair ON couples (user_low, user_high) WHERE status = 'active'`,
	},
	{
		name: "uidx_match_pending_pair",
		sql:  `CREATE UNIQUE INDEX IF NOT EXISTS uidx_match_pending_pair ON match_requests (from_user_id, to_user_id) WHERE status = 'pending'`,
	},
}

func EnsureIndexes(gdb *gorm.DB) error {
	for _, idx := range partialIndexes {
		if err := gdb.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", idx.name, err)
		}
	}
	return nil
}
