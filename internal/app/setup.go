package app

import (
	"context"
	"fmt"

	"multidist/internal/archive"
	"multidist/internal/config"
	"multidist/internal/database"
	"multidist/internal/encryption"
)

// NeedsPassphrase reports whether Setup will generate keys that must be
// sealed with a passphrase.
func NeedsPassphrase(cfg *config.Config) bool {
	switch cfg.Encryption.Type {
	case "", "age":
		return true
	}
	return false
}

// Setup prepares the ledger home for cfg: generates encryption keys unless
// they already exist, checks every archive is reachable and creates the
// database schema.
func Setup(ctx context.Context, cfg *config.Config, passphrase string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	if !enc.IsConfigured() {
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating snapshot keys: %w", err)
		}
	}

	for _, ac := range cfg.Archives {
		arc, err := archive.NewArchiveFromConfig(ctx, ac)
		if err != nil {
			return fmt.Errorf("creating archive %s: %w", ac.Name, err)
		}
		if err := arc.ValidateSetup(ctx); err != nil {
			return fmt.Errorf("archive %s: %w", ac.Name, err)
		}
	}

	if cfg.Database.Type == "sqlite" {
		if err := database.Migrate(cfg.Database, cfg.LedgerID); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}
	return nil
}
