// Package testdb opens an isolated SQLite database with the production schema
// for repository and service tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/MyelinBots/bloom-go/internal/db"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/couple"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/insight"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/interaction"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/match_request"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/notification"
	"github.com/MyelinBots/bloom-go/internal/db/repositories/user"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var seq atomic.Int64

// New returns a fresh in-memory database. A single connection serializes
// every transaction, which keeps concurrent tests deterministic.
func New(tb testing.TB, opts ...db.Option) *db.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:bloom_test_%d?mode=memory&cache=shared", seq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(gormLogger.Default.LogMode(gormLogger.Silent)))
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	if err := db.EnsureIndexes(gdb); err != nil {
		tb.Fatalf("indexes: %v", err)
	}

	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db.New(gdb, logger.NewNop(), opts...)
}

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&user.User{},
		&couple.Couple{},
		&interaction.MoodLog{},
		&interaction.AppreciationLog{},
		&interaction.Memory{},
		&insight.WeeklyInsight{},
		&notification.Notification{},
		&match_request.MatchRequest{},
	)
}
