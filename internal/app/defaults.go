package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override default locations.
const (
	EnvConfigPath = "MULTIDIST_CONFIG_PATH"
	EnvHome       = "MULTIDIST_HOME"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - MULTIDIST_CONFIG_PATH: config file location (default: ~/.config/multidist.toml)
//   - MULTIDIST_HOME: base directory for ledger data (default: ~/.local/share/multidist)
func GetDefaults() (map[string]string, error) {
	configPath, err := envOrHome(EnvConfigPath, ".config", "multidist.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := envOrHome(EnvHome, ".local", "share", "multidist")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// envOrHome returns the value of env, or the path elems joined under the
// user's home directory when env is unset.
func envOrHome(env string, elems ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elems...)...), nil
}
