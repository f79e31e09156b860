package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"multidist/internal/config"
)

func TestNeedsPassphrase(t *testing.T) {
	tests := []struct {
		encType string
		want    bool
	}{
		{"", true},
		{"age", true},
		{"none", false},
		{"test", false},
	}
	for _, tt := range tests {
		t.Run(tt.encType, func(t *testing.T) {
			cfg := &config.Config{Encryption: config.EncryptionConfig{Type: tt.encType}}
			if got := NeedsPassphrase(cfg); got != tt.want {
				t.Errorf("NeedsPassphrase() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewConfig(uuid.NewString(), t.TempDir())

	if err := Setup(ctx, cfg, "correct horse"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	for _, path := range []string{cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("key %s not written: %v", filepath.Base(path), err)
		}
	}
	pub, err := os.ReadFile(cfg.Encryption.PublicKeyPath)
	if err != nil {
		t.Fatal(err)
	}

	// A second run keeps the existing keys and is otherwise a no-op.
	if err := Setup(ctx, cfg, "ignored"); err != nil {
		t.Fatalf("Setup() second run error = %v", err)
	}
	again, err := os.ReadFile(cfg.Encryption.PublicKeyPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(pub) {
		t.Error("Setup() regenerated existing keys")
	}

	a, err := NewMultidistApp(ctx, cfg, "history", Options{Stderr: io.Discard})
	if err != nil {
		t.Fatalf("NewMultidistApp() after Setup error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestSetup_RejectsEmptyPassphrase(t *testing.T) {
	cfg := config.NewConfig(uuid.NewString(), t.TempDir())
	if err := Setup(context.Background(), cfg, ""); err == nil {
		t.Fatal("Setup() with empty passphrase succeeded")
	}
}
