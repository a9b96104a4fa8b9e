// Package config handles budgetrecon configuration loading and saving.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all budgetrecon configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Storage StorageConfig `toml:"storage"`
	Blob    BlobConfig    `toml:"blob"`
	Ledger  LedgerConfig  `toml:"ledger"`
	FX      FXConfig      `toml:"fx"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// GeneralConfig holds organization-wide settings.
type GeneralConfig struct {
	Organization string `toml:"organization"`
	Timezone     string `toml:"timezone"`
	RolloverTime string `toml:"rollover_time"`
	User         string `toml:"user,omitempty"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	DBPath string `toml:"db_path,omitempty"`
}

// BlobConfig selects where uploaded workbooks and ledger exports live.
type BlobConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir,omitempty"`
	Bucket  string `toml:"bucket,omitempty"`
}

// LedgerConfig selects the expense ledger source.
type LedgerConfig struct {
	Source    string `toml:"source"`
	BlobKey   string `toml:"blob_key,omitempty"`
	ProjectID string `toml:"project_id,omitempty"`
	Dataset   string `toml:"dataset,omitempty"`
	Table     string `toml:"table,omitempty"`
}

// FXConfig holds rate service settings. Static rates, when present,
// replace the service entirely.
type FXConfig struct {
	BaseURL     string            `toml:"base_url,omitempty"`
	TimeoutSecs int               `toml:"timeout_secs"`
	StaticRates map[string]string `toml:"static_rates,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Organization: "Musson",
			Timezone:     "America/Jamaica",
			RolloverTime: "06:15",
		},
		Blob: BlobConfig{
			Backend: "local",
		},
		Ledger: LedgerConfig{
			Source:  "csv",
			BlobKey: "ledger/expenses.csv",
		},
		FX: FXConfig{
			BaseURL:     "https://open.er-api.com/v6",
			TimeoutSecs: 10,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8788",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetrecon")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "budgetrecon")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for the database and local blobs.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "budgetrecon")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "budgetrecon")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating parent directories.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DBPath returns the configured database path or the default under DataDir.
func DBPath(cfg Config) string {
	if cfg.Storage.DBPath != "" {
		return cfg.Storage.DBPath
	}
	return filepath.Join(DataDir(), "budgetrecon.db")
}

// BlobDir returns the local blob directory or the default under DataDir.
func BlobDir(cfg Config) string {
	if cfg.Blob.Dir != "" {
		return cfg.Blob.Dir
	}
	return filepath.Join(DataDir(), "blobs")
}

// GetFXBaseURL returns the rate service URL from env var or config, in that order.
func GetFXBaseURL(cfg Config) string {
	if u := os.Getenv("BUDGETRECON_FX_URL"); u != "" {
		return u
	}
	return cfg.FX.BaseURL
}

// GetUser returns the editor identity from env var or config, in that order.
func GetUser(cfg Config) string {
	if u := os.Getenv("BUDGETRECON_USER"); u != "" {
		return u
	}
	return cfg.General.User
}

// GetProjectID returns the BigQuery project from config or GOOGLE_CLOUD_PROJECT.
func GetProjectID(cfg Config) string {
	if cfg.Ledger.ProjectID != "" {
		return cfg.Ledger.ProjectID
	}
	return os.Getenv("GOOGLE_CLOUD_PROJECT")
}

// FXTimeout returns the rate service timeout.
func FXTimeout(cfg Config) time.Duration {
	if cfg.FX.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.FX.TimeoutSecs) * time.Second
}

// Rollover parses the daily cache rollover time and timezone.
func Rollover(cfg Config) (hour, minute int, loc *time.Location, err error) {
	loc, err = time.LoadLocation(cfg.General.Timezone)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("loading timezone %q: %w", cfg.General.Timezone, err)
	}
	t, err := time.Parse("15:04", strings.TrimSpace(cfg.General.RolloverTime))
	if err != nil {
		return 0, 0, nil, fmt.Errorf("parsing rollover time %q: %w", cfg.General.RolloverTime, err)
	}
	return t.Hour(), t.Minute(), loc, nil
}
