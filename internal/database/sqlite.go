package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const memoryDatabase = ":memory:"

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := sqliteDSN(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := serverDialectConfig()
	gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	// Explicit DSNs may omit _foreign_keys, and user deletion relies on cascades.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// sqliteDSN maps Path onto a file: URI. An empty path or ":memory:" opens a shared
// in-memory database; anything else is a WAL-mode file whose directory is created.
func sqliteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	query := url.Values{}
	query.Set("_foreign_keys", "1")

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, memoryDatabase) {
		path = memoryDatabase
		query.Set("cache", "shared")
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("sqlite: create %s: %w", dir, err)
			}
		}
		query.Set("_journal_mode", "WAL")
		query.Set("_busy_timeout", "5000")
	}
	for key, value := range cfg.Options {
		query.Set(key, value)
	}

	return "file:" + filepath.ToSlash(path) + "?" + query.Encode(), nil
}
