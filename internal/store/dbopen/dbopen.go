// Package dbopen resolves a database URL into a play journal.
package dbopen

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/wagering/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/wagering/internal/store/migrations"
	"github.com/MarkoPoloResearchLab/wagering/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Driver names returned by ResolveDriver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Backends select the journal implementation for Postgres URLs.
const (
	BackendGORM = "gorm"
	BackendPGX  = "pgx"
)

const defaultSQLiteFile = "wagering.db"

// Options tunes OpenJournal.
type Options struct {
	// Backend is BackendGORM (default) or BackendPGX; pgx requires Postgres.
	Backend string
	// SkipMigrations leaves the Postgres schema untouched.
	SkipMigrations bool
}

// OpenJournal opens the journal behind dsn and prepares its schema. The
// returned cleanup closes the underlying connections.
func OpenJournal(ctx context.Context, dsn string, options Options) (wager.Journal, func() error, error) {
	driver, sqlitePath, err := ResolveDriver(dsn)
	if err != nil {
		return nil, nil, err
	}
	backend := strings.ToLower(strings.TrimSpace(options.Backend))
	if backend == "" {
		backend = BackendGORM
	}
	if driver == DriverPostgres && !options.SkipMigrations {
		if err := migrations.Up(ctx, dsn); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	switch backend {
	case BackendPGX:
		if driver != DriverPostgres {
			return nil, nil, fmt.Errorf("backend %q requires a postgres url", backend)
		}
		store, closePool, err := pgstore.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("pgx open: %w", err)
		}
		return store, func() error { closePool(); return nil }, nil
	case BackendGORM:
		db, cleanup, err := OpenGORM(ctx, driver, dsn, sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := PrepareSchema(db, driver); err != nil {
			_ = cleanup()
			return nil, nil, err
		}
		return gormstore.New(db), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unsupported journal backend %q", backend)
	}
}

// OpenGORM opens a gorm handle for a resolved driver.
func OpenGORM(ctx context.Context, driver string, dsn string, sqlitePath string) (*gorm.DB, func() error, error) {
	var (
		db  *gorm.DB
		err error
	)
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(sqlitePath), cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

// PrepareSchema auto-migrates SQLite; Postgres uses the SQL migrations.
func PrepareSchema(db *gorm.DB, driver string) error {
	if driver != DriverSQLite {
		return nil
	}
	if err := gormstore.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ResolveDriver maps a database URL to a driver name and, for SQLite, a file path.
func ResolveDriver(dsn string) (string, string, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return "", "", fmt.Errorf("database url is required")
	}
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return DriverPostgres, "", nil
	}
	if strings.HasPrefix(trimmed, "sqlite://") {
		u, err := url.Parse(trimmed)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Path
		if path == "" {
			path = u.Host
		}
		if path == "" || path == "/" {
			path = defaultSQLiteFile
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return DriverSQLite, sqlitePath, err
	}
	// Treat everything else as a direct sqlite path.
	sqlitePath, err := normalizeSQLitePath(trimmed)
	return DriverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	if strings.HasPrefix(path, "/") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", err
		}
		return path, nil
	}
	abs := filepath.Join(".", path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	return abs, nil
}
