package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MyelinBots/bloom-go/config"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	defaultTxTimeout     = 5 * time.Second
	defaultTxMaxAttempts = 3
)

// DB wraps the gorm handle together with the transaction policy every
// request-path mutation runs under.
type DB struct {
	DB *gorm.DB

	log           *logger.Logger
	txTimeout     time.Duration
	txMaxAttempts uint
}

type Option func(*DB)

func WithTxTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.txTimeout = d
		}
	}
}

func WithTxMaxAttempts(n uint) Option {
	return func(db *DB) {
		if n > 0 {
			db.txMaxAttempts = n
		}
	}
}

func New(gdb *gorm.DB, baseLog *logger.Logger, opts ...Option) *DB {
	d := &DB{
		DB:            gdb,
		log:           baseLog.With("component", "DB"),
		txTimeout:     defaultTxTimeout,
		txMaxAttempts: defaultTxMaxAttempts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GormConfig is shared by the postgres connection and the sqlite test database.
func GormConfig(l gormLogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                                   l,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func Open(cfg config.DBConfig, baseLog *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.DataBase, cfg.Port, cfg.SSLMode,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gdb, err := gorm.Open(postgres.Open(dsn), GormConfig(gormLog))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return New(gdb, baseLog, WithTxTimeout(cfg.TxTimeout), WithTxMaxAttempts(cfg.TxMaxAttempts)), nil
}

// Conn returns tx when the caller is inside a transaction, the pool otherwise.
// A tx already carries the transaction's deadline, so ctx only applies to the
// pool.
func (d *DB) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return d.DB.WithContext(ctx)
}

func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
