package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{
		"mints",
		"token_accounts",
		"collections",
		"collection_user_states",
		"distributions",
		"distribution_user_states",
		"operations",
		"schema_migrations",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus(t *testing.T) {
	t.Run("fresh database needs migration", func(t *testing.T) {
		db := openTestDB(t)

		err := CheckDBMigrationStatus(db)
		if !errors.Is(err, ErrNeedsMigration) {
			t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNeedsMigration", err)
		}
	})

	t.Run("migrated database is current", func(t *testing.T) {
		db := openTestDB(t)
		if err := MigrateUp(db); err != nil {
			t.Fatalf("MigrateUp() failed: %v", err)
		}

		if err := CheckDBMigrationStatus(db); err != nil {
			t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
		}
	})
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v < 1 {
		t.Errorf("LatestVersion() = %d, want >= 1", v)
	}
}

func TestSchema_Constraints(t *testing.T) {
	db := openTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	mustExec := func(t *testing.T, query string) {
		t.Helper()
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Exec(%q) failed: %v", query, err)
		}
	}
	mustExec(t, `INSERT INTO mints (address, authority, decimals) VALUES ('mint-1', 'auth', 6)`)
	mustExec(t, `INSERT INTO token_accounts (address, mint, owner) VALUES ('vault-1', 'mint-1', 'coll-1')`)
	mustExec(t, `INSERT INTO mints (address, authority, decimals) VALUES ('receipt-1', 'coll-1', 6)`)
	mustExec(t, `INSERT INTO collections (address, authority, base_mint, vault, receipt_mint, burn_on_commit,
		max_collectable_tokens, counter, bump, created_at)
		VALUES ('coll-1', 'auth', 'mint-1', 'vault-1', 'receipt-1', 0, 1000, 0, 255, datetime('now'))`)

	tests := []struct {
		name  string
		query string
	}{
		{
			name:  "token account with unknown mint",
			query: `INSERT INTO token_accounts (address, mint, owner) VALUES ('acct-x', 'no-such-mint', 'owner')`,
		},
		{
			name:  "negative balance",
			query: `UPDATE token_accounts SET amount = -1 WHERE address = 'vault-1'`,
		},
		{
			name:  "collected above cap",
			query: `UPDATE collections SET lifetime_tokens_collected = 1001 WHERE address = 'coll-1'`,
		},
		{
			name:  "zero cap",
			query: `UPDATE collections SET max_collectable_tokens = 0 WHERE address = 'coll-1'`,
		},
		{
			name:  "user state for unknown collection",
			query: `INSERT INTO collection_user_states (address, collection, owner) VALUES ('st-1', 'no-such-coll', 'user')`,
		},
		{
			name: "distributed above deposited",
			query: `INSERT INTO distributions (address, collection, reward_mint, vault, lifetime_deposited_tokens,
				distributed_tokens, bump, created_at)
				VALUES ('dist-1', 'coll-1', 'mint-1', 'vault-1', 10, 11, 255, datetime('now'))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Exec(tt.query); err == nil {
				t.Errorf("Exec() succeeded, want constraint violation")
			}
		})
	}
}

// openTestDB opens an in-memory SQLite database for testing.
// The pool is pinned to one connection so every query sees the same database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
