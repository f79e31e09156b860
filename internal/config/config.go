package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// DefaultProgramID is the program whose address space collections and
// distributions are derived in.
const DefaultProgramID = "DisJzzeTrLXzJgtaaqBxcNKLrLFyc4mY3ELGCdEkVPzt"

// Config represents the main configuration for multidist.
type Config struct {
	LedgerID   string           `toml:"ledger_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	ProgramID  string           `toml:"program_id"`
	Database   DatabaseConfig   `toml:"database"`
	Archives   []ArchiveConfig  `toml:"archives"`
	Encryption EncryptionConfig `toml:"encryption"`
	API        APIConfig        `toml:"api"`
}

// DatabaseConfig represents configuration for the ledger database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// ArchiveConfig represents a destination for ledger snapshots.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type ArchiveConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"
	Name string `toml:"name"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible stores
}

// EncryptionConfig controls encryption of archived snapshots.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age", "none" or "test"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// APIConfig configures the read-only HTTP API started by `multidist serve`.
type APIConfig struct {
	ListenAddr         string   `toml:"listen_addr"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"` // per client IP; 0 disables limiting
	CORSOrigins        []string `toml:"cors_origins,omitempty"`
}

// NewConfig creates a new Config with the provided values and defaults for
// everything else: a sqlite database and a filesystem archive under baseDir,
// age-encrypted snapshots, and the API on localhost.
func NewConfig(ledgerID, baseDir string) *Config {
	return &Config{
		LedgerID:  ledgerID,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		ProgramID: DefaultProgramID,
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Archives: []ArchiveConfig{
			{Type: "filesystem", Name: "local", FSRoot: filepath.Join(baseDir, "archive")},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "multidist.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "multidist.key"),
		},
		API: APIConfig{
			ListenAddr:         "127.0.0.1:8080",
			RateLimitPerMinute: 120,
		},
	}
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if _, err := uuid.Parse(c.LedgerID); err != nil {
		return fmt.Errorf("ledger_id %q is not a UUID: %w", c.LedgerID, err)
	}
	if _, err := c.Program(); err != nil {
		return err
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir is required")
	}
	if c.API.RateLimitPerMinute < 0 {
		return fmt.Errorf("api.rate_limit_per_minute must not be negative")
	}
	return nil
}

// Program returns the configured program ID, or the default when unset.
func (c *Config) Program() (solana.PublicKey, error) {
	if c.ProgramID == "" {
		return solana.MustPublicKeyFromBase58(DefaultProgramID), nil
	}
	pk, err := solana.PublicKeyFromBase58(c.ProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("program_id %q: %w", c.ProgramID, err)
	}
	return pk, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new config file at path. An existing file is never overwritten.
func Init(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("config file already exists at %s", path)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("initializing config at %s: %w", path, err)
	}
	return nil
}
