package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"multidist/internal/archive"
	"multidist/internal/config"
	"multidist/internal/database"
	"multidist/internal/encryption"
)

// RestoreSnapshot replaces the local sqlite ledger with the archived
// snapshot and returns the snapshot's version. An existing local database
// is only replaced when force is set. No app is open during restore since
// a database behind the archive cannot be opened.
func RestoreSnapshot(ctx context.Context, cfg *config.Config, passphrase string, force bool) (int64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Database.Type != "sqlite" {
		return 0, fmt.Errorf("restore requires a sqlite database, got %s", cfg.Database.Type)
	}
	if len(cfg.Archives) == 0 {
		return 0, fmt.Errorf("no archives configured")
	}

	dest := database.DatabasePath(cfg.Database, cfg.LedgerID)
	if _, err := os.Stat(dest); err == nil && !force {
		return 0, fmt.Errorf("ledger database already exists at %s (use --force to replace it)", dest)
	}

	arc, err := archive.NewArchiveFromConfig(ctx, cfg.Archives[0])
	if err != nil {
		return 0, fmt.Errorf("creating archive: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return 0, fmt.Errorf("creating encryptor: %w", err)
	}

	version, err := arc.Version(ctx, cfg.LedgerID, archive.SnapshotItem)
	if err != nil {
		return 0, fmt.Errorf("checking archived snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no snapshot archived for ledger %s", cfg.LedgerID)
	}

	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking snapshot key: %w", err)
	}

	if err := os.MkdirAll(cfg.Database.DataDir, 0755); err != nil {
		return 0, fmt.Errorf("creating data directory: %w", err)
	}

	sealed, err := os.CreateTemp("", "multidist-restore-*.enc")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := arc.Get(ctx, cfg.LedgerID, archive.SnapshotItem, sealed); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding snapshot: %w", err)
	}

	// Decrypt next to the destination so the final rename stays on one filesystem.
	plain, err := os.CreateTemp(filepath.Dir(dest), ".restore-*.db")
	if err != nil {
		return 0, fmt.Errorf("creating restore file: %w", err)
	}
	plainPath := plain.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(plainPath)
		}
	}()

	if err := dec.Decrypt(sealed, plain); err != nil {
		plain.Close()
		return 0, fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := plain.Close(); err != nil {
		return 0, fmt.Errorf("closing restore file: %w", err)
	}

	if err := verifySnapshot(plainPath, version); err != nil {
		return 0, err
	}

	if err := os.Rename(plainPath, dest); err != nil {
		return 0, fmt.Errorf("installing restored database: %w", err)
	}
	success = true
	return version, nil
}

// verifySnapshot opens the restored file and checks that its journal
// reaches the archived version.
func verifySnapshot(path string, version int64) error {
	db, err := database.NewSQLiteDatabase(path, nil)
	if err != nil {
		return fmt.Errorf("opening restored database: %w", err)
	}
	defer db.Close()

	if err := db.CheckMigrations(); err != nil {
		return fmt.Errorf("restored database: %w", err)
	}
	maxID, err := db.MaxOperationID(context.Background())
	if err != nil {
		return fmt.Errorf("reading restored journal: %w", err)
	}
	if maxID < version {
		return fmt.Errorf("restored database journal ends at %d, archive says %d", maxID, version)
	}
	return nil
}
