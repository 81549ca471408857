package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - KBDUMP_CONFIG_PATH: config file location (default: ~/.config/kbdump.toml)
//   - KBDUMP_HOME: base directory for kbdump data (default: ~/.local/share/kbdump)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking KBDUMP_CONFIG_PATH
// first, then falling back to ~/.config/kbdump.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("KBDUMP_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "kbdump.toml"), nil
}

// getBaseDir returns the base directory for kbdump data, checking
// KBDUMP_HOME first, then falling back to the XDG default.
func getBaseDir() (string, error) {
	if path := os.Getenv("KBDUMP_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "kbdump"), nil
}
