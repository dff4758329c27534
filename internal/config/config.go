// Package config provides configuration management for pagesync.
// It supports YAML configuration files, environment variables, and sensible defaults.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/klauern/pagesync/internal/util"
)

// Config represents the complete pagesync configuration.
type Config struct {
	// Source configures the remote workspace endpoint
	Source SourceConfig `yaml:"source"`

	// Store configures the local content store
	Store StoreConfig `yaml:"store"`

	// Sync configures default synchronization behavior
	Sync SyncConfig `yaml:"sync"`

	// Server configures webhook/schedule serve mode
	Server ServerConfig `yaml:"server"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output"`
}

// SourceConfig holds remote workspace settings.
type SourceConfig struct {
	// BaseURL is the workspace API root, e.g. https://api.example.com/v1
	BaseURL string `yaml:"base_url"`
	// Token is the bearer token. Prefer PAGESYNC_SOURCE_TOKEN over the file.
	Token string `yaml:"token,omitempty"`
	// Collection is the remote collection id to sync
	Collection string `yaml:"collection"`
	// Timeout bounds a single API request
	Timeout time.Duration `yaml:"timeout"`
	// PageSize is the listing page size
	PageSize int `yaml:"page_size"`
}

// StoreConfig holds content store settings.
type StoreConfig struct {
	// Path is the SQLite database file location
	Path string `yaml:"path"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// Incremental enables watermark-filtered passes by default
	Incremental bool `yaml:"incremental"`
	// CheckDeletions enables deletion reconciliation by default
	CheckDeletions bool `yaml:"check_deletions"`
	// CompareHashes adds content/property hash equality to skip decisions
	CompareHashes bool `yaml:"compare_hashes"`
	// BulkMode allows the bulk execution strategy for large batches
	BulkMode bool `yaml:"bulk_mode"`
	// BulkThreshold is the minimum batch size for bulk mode
	BulkThreshold int `yaml:"bulk_threshold"`
	// RefilterThreshold triggers the client-side re-filter above this count
	RefilterThreshold int `yaml:"refilter_threshold"`
	// GraceWindow exempts recently synced links from deletion
	GraceWindow time.Duration `yaml:"grace_window"`
	// DeleteBatchSize is the link paging size during reconciliation
	DeleteBatchSize int `yaml:"delete_batch_size"`
	// ProgressEvery emits a progress update every N records
	ProgressEvery int `yaml:"progress_every"`
	// ReclaimEvery releases working memory every N records
	ReclaimEvery int `yaml:"reclaim_every"`
	// MemoryBudgetMB feeds the timeout governor's memory tiers
	MemoryBudgetMB int `yaml:"memory_budget_mb"`
	// Background controls background detection (auto, always, never)
	Background string `yaml:"background"`
}

// ServerConfig holds serve-mode settings.
type ServerConfig struct {
	// Addr is the webhook listener address
	Addr string `yaml:"addr"`
	// Schedule runs a pass on this interval when serving (0 disables)
	Schedule time.Duration `yaml:"schedule"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Format is the default output format (table, json)
	Format string `yaml:"format"`
	// Color controls color output (auto, always, never)
	Color string `yaml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout:  30 * time.Second,
			PageSize: 100,
		},
		Store: StoreConfig{
			Path: filepath.Join(util.PagesyncDataPath(), "pagesync.db"),
		},
		Sync: SyncConfig{
			Incremental:       true,
			CheckDeletions:    true,
			CompareHashes:     true,
			BulkMode:          true,
			BulkThreshold:     10,
			RefilterThreshold: 50,
			GraceWindow:       24 * time.Hour,
			DeleteBatchSize:   1000,
			ProgressEvery:     10,
			ReclaimEvery:      25,
			MemoryBudgetMB:    512,
			Background:        "auto",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8787",
		},
		Output: OutputConfig{
			Format:  "table",
			Color:   "auto",
			Verbose: false,
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.PagesyncConfigPath(), configFileName)
}

// Load loads the configuration from file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg := Default()

	// Try to load from file
	configPath := FilePath()
	// #nosec G304 - configPath is constructed from trusted config directory
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file, use defaults with environment overrides
			cfg.applyEnvironment()
			return cfg, nil
		}
		return nil, err
	}

	// Parse YAML over defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	cfg.applyEnvironment()

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path.
func (c *Config) SaveToPath(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// #nosec G306 - config file should be readable by user
	return os.WriteFile(path, data, 0o644)
}

// Validate reports configuration that cannot drive a sync pass.
func (c *Config) Validate() error {
	var problems []string
	if c.Source.BaseURL == "" {
		problems = append(problems, "source.base_url is required")
	}
	if c.Source.Collection == "" {
		problems = append(problems, "source.collection is required")
	}
	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern PAGESYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Source settings
	if v := os.Getenv("PAGESYNC_SOURCE_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("PAGESYNC_SOURCE_TOKEN"); v != "" {
		c.Source.Token = v
	}
	if v := os.Getenv("PAGESYNC_SOURCE_COLLECTION"); v != "" {
		c.Source.Collection = v
	}
	if v := os.Getenv("PAGESYNC_SOURCE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Source.Timeout = d
		}
	}
	if v := os.Getenv("PAGESYNC_SOURCE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Source.PageSize = n
		}
	}

	// Store settings
	if v := os.Getenv("PAGESYNC_STORE_PATH"); v != "" {
		c.Store.Path = v
	}

	// Sync settings
	if v := os.Getenv("PAGESYNC_SYNC_INCREMENTAL"); v != "" {
		c.Sync.Incremental = parseBool(v)
	}
	if v := os.Getenv("PAGESYNC_SYNC_CHECK_DELETIONS"); v != "" {
		c.Sync.CheckDeletions = parseBool(v)
	}
	if v := os.Getenv("PAGESYNC_SYNC_COMPARE_HASHES"); v != "" {
		c.Sync.CompareHashes = parseBool(v)
	}
	if v := os.Getenv("PAGESYNC_SYNC_BULK_MODE"); v != "" {
		c.Sync.BulkMode = parseBool(v)
	}
	if v := os.Getenv("PAGESYNC_SYNC_GRACE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Sync.GraceWindow = d
		}
	}
	if v := os.Getenv("PAGESYNC_SYNC_MEMORY_BUDGET_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sync.MemoryBudgetMB = n
		}
	}
	if v := os.Getenv("PAGESYNC_SYNC_BACKGROUND"); v != "" {
		c.Sync.Background = v
	}

	// Server settings
	if v := os.Getenv("PAGESYNC_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PAGESYNC_SERVER_SCHEDULE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Server.Schedule = d
		}
	}

	// Output settings
	if v := os.Getenv("PAGESYNC_OUTPUT_FORMAT"); v != "" {
		c.Output.Format = v
	}
	if v := os.Getenv("PAGESYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("PAGESYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
