// Package config loads and writes the kbdump configuration file (TOML).
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for kbdump.
type Config struct {
	// BaseURL is the API root of the knowledge-base server,
	// e.g. "https://tracker.example.com/api". A trailing slash is stripped
	// by the client.
	BaseURL string `toml:"base_url"`

	// LogDir is where run logs land when the destination has no local
	// directory of its own (s3, memory). The filesystem destination keeps
	// the log next to the exported tree instead.
	LogDir string `toml:"log_dir"`

	Auth        AuthConfig        `toml:"auth"`
	HTTP        HTTPConfig        `toml:"http"`
	Export      ExportConfig      `toml:"export"`
	Destination DestinationConfig `toml:"destination"`
	Database    DatabaseConfig    `toml:"database"`
}

// AuthConfig controls where the bearer token comes from. The token itself
// is never written to the config file.
type AuthConfig struct {
	// TokenEnv names the environment variable consulted before falling
	// back to an interactive prompt.
	TokenEnv string `toml:"token_env"`
}

// HTTPConfig tunes the API client.
type HTTPConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	PageSize       int `toml:"page_size"`
	MaxPages       int `toml:"max_pages"`
}

// ExportConfig tunes the tree walk.
type ExportConfig struct {
	// Dir is the default output directory for the filesystem destination.
	// The --out flag overrides it per run.
	Dir      string `toml:"dir"`
	MaxDepth int    `toml:"max_depth"`
}

// DestinationConfig selects the output backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DestinationConfig struct {
	Type string `toml:"type"` // "filesystem", "s3", or "memory"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// Optional static credentials; when empty the SDK's default chain
	// (env, shared config, instance role) applies.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// DatabaseConfig selects the run-history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// NewConfig creates a Config with the provided values and sensible defaults.
func NewConfig(baseURL, baseDir string) *Config {
	cfg := &Config{
		BaseURL: baseURL,
		LogDir:  filepath.Join(baseDir, "log"),
		Export: ExportConfig{
			Dir: filepath.Join(baseDir, "export"),
		},
		Destination: DestinationConfig{Type: "filesystem"},
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued tunables so the rest of the program
// never re-checks them.
func (c *Config) ApplyDefaults() {
	if c.Auth.TokenEnv == "" {
		c.Auth.TokenEnv = "KBDUMP_TOKEN"
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.HTTP.PageSize <= 0 {
		c.HTTP.PageSize = 100
	}
	if c.HTTP.MaxPages <= 0 {
		c.HTTP.MaxPages = 1000
	}
	if c.Export.MaxDepth <= 0 {
		c.Export.MaxDepth = 64
	}
	if c.Destination.Type == "" {
		c.Destination.Type = "filesystem"
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and applies defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
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

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
// It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
