package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"multidist/internal/config"
	"multidist/internal/database/migrations"
	"multidist/internal/ledger"
)

// NewDatabaseFromConfig creates a ledger.Database based on the database config type.
// The sqlite file is named after the ledger ID. In-memory databases are migrated
// on creation since nothing else can reach them.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, ledgerID string, clock clockwork.Clock) (ledger.Database, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err := NewSQLiteDatabase(DatabasePath(cfg, ledgerID), clock)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", clock)
		if err != nil {
			return nil, err
		}
		if err := migrations.MigrateUp(db.db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// DatabasePath returns the sqlite file path for a ledger.
func DatabasePath(cfg config.DatabaseConfig, ledgerID string) string {
	return filepath.Join(cfg.DataDir, ledgerID+".db")
}

// Migrate opens the configured database and applies all pending migrations.
func Migrate(cfg config.DatabaseConfig, ledgerID string) error {
	if cfg.Type != "sqlite" {
		return fmt.Errorf("migrate requires a sqlite database, got %s", cfg.Type)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	db, err := OpenConnection(DatabasePath(cfg, ledgerID))
	if err != nil {
		return err
	}
	defer db.Close()

	return migrations.MigrateUp(db)
}
