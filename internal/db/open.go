package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by the DSN. PostgreSQL DSNs are the
// production target; sqlite DSNs (prefix "sqlite://", a file path, or
// ":memory:") are supported for development and tests.
func Open(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case dsn == ":memory:" || strings.HasPrefix(dsn, "file:"):
		dialector = sqlite.Open(dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	return conn, nil
}
