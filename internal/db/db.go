package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

// Open connects to postgres, or to sqlite when dsn starts with "sqlite:",
// pings it and migrates the accounts table.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	cfg := &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	sqliteDSN, isSQLite := strings.CutPrefix(dsn, sqlitePrefix)
	if isSQLite {
		db, err = gorm.Open(sqlite.Open(sqliteDSN), cfg)
	} else {
		cfg.PrepareStmt = true
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if isSQLite {
		// one writer keeps sqlite from returning SQLITE_BUSY and keeps
		// :memory: databases on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		configurePool(sqlDB)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.Account{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Handle owns the database connection for the process. Connect is
// idempotent; a failed attempt is not remembered, so the next call retries.
type Handle struct {
	DSN string

	mu sync.Mutex
	db *gorm.DB
}

func NewHandle(dsn string) *Handle {
	return &Handle{DSN: dsn}
}

func (h *Handle) Connect(ctx context.Context) (*gorm.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		return h.db, nil
	}
	db, err := Open(ctx, h.DSN)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	h.mu.Lock()
	db := h.db
	h.mu.Unlock()
	if db == nil {
		return errors.New("db not connected")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	sqlDB, err := h.db.DB()
	h.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
