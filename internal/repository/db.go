package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"plannr/internal/model"
)

// DefaultDSN is used when no database location is configured.
const DefaultDSN = "plannr.db"

// busyTimeout is how long SQLite waits on a locked file before failing a write.
const busyTimeout = 5 * time.Second

// NewDB opens the record database and migrates the records table.
// The pool holds a single connection: the planner is the only writer.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	if !isMemoryDSN(dsn) {
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("open db %q: %w", dsn, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db %q: %w", dsn, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Record{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate records: %w", err)
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return sqlDB.Close()
}

// Warnings and slow statements only; missing records are expected on first run.
func newGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "[gorm] ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// withPragmas adds busy timeout and WAL journaling unless the DSN sets them.
func withPragmas(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds()))
	}
	if !isMemoryDSN(dsn) && !strings.Contains(dsn, "_journal_mode") {
		params = append(params, "_journal_mode=WAL")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func ensureParentDir(dsn string) error {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
