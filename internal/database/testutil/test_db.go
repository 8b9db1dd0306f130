// Package testutil opens isolated in-memory databases for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/database"
)

type schemaLevel int

const (
	schemaNone schemaLevel = iota
	schemaMigrated
	schemaSeeded
)

type setup struct {
	schema schemaLevel
	cfg    database.Config
}

// TestDBOption adjusts MustOpenTestDB.
type TestDBOption func(*setup)

var opened atomic.Int64

// WithAutoMigrate creates every table.
func WithAutoMigrate() TestDBOption {
	return func(s *setup) { s.schema = max(s.schema, schemaMigrated) }
}

// WithSeedData creates every table and the system key binding groups.
func WithSeedData() TestDBOption {
	return func(s *setup) { s.schema = schemaSeeded }
}

// WithSingleConnection caps the pool at one connection, so concurrent writers queue
// on the pool instead of failing with SQLITE_LOCKED.
func WithSingleConnection() TestDBOption {
	return func(s *setup) { s.cfg.MaxOpenConns = 1 }
}

// MustOpenTestDB opens a private shared-cache SQLite database named after the test.
// Connections within one test see the same data; the handle closes on cleanup.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	s := setup{cfg: database.Config{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, opened.Add(1)),
	}}
	for _, opt := range opts {
		opt(&s)
	}

	db, err := database.Open(s.cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch s.schema {
	case schemaSeeded:
		require.NoError(t, database.AutoMigrateAndSeed(db))
	case schemaMigrated:
		require.NoError(t, database.AutoMigrate(db))
	}
	return db
}
