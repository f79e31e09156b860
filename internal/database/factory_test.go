package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"multidist/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	const ledgerID = "5f0c8a2e-0d3e-4a8e-9a55-2b0d1f3c7e11"

	t.Run("memory database is migrated", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "memory"}
		got, err := NewDatabaseFromConfig(cfg, ledgerID, nil)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
		if _, err := got.MaxOperationID(context.Background()); err != nil {
			t.Errorf("MaxOperationID() error = %v", err)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")
		cfg := config.DatabaseConfig{
			Type:    "sqlite",
			DataDir: dataDir,
		}
		got, err := NewDatabaseFromConfig(cfg, ledgerID, nil)
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		// The file appears once the connection is used.
		if err := got.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error before migrate")
		}
		if _, err := os.Stat(filepath.Join(dataDir, ledgerID+".db")); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "sqlite"}
		got, err := NewDatabaseFromConfig(cfg, ledgerID, nil)

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := config.DatabaseConfig{Type: "unknown"}
		got, err := NewDatabaseFromConfig(cfg, ledgerID, nil)

		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type, got nil")
		}
		if got != nil {
			t.Error("NewDatabaseFromConfig() should return nil on error")
			got.Close()
		}
	})
}

func TestMigrate(t *testing.T) {
	const ledgerID = "ledger-under-test"
	cfg := config.DatabaseConfig{Type: "sqlite", DataDir: t.TempDir()}

	if err := Migrate(cfg, ledgerID); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	db, err := NewDatabaseFromConfig(cfg, ledgerID, nil)
	if err != nil {
		t.Fatalf("NewDatabaseFromConfig() error = %v", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() after Migrate() error = %v", err)
	}
}
