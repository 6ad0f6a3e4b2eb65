// Package config provides configuration management for notionsync.
// It supports YAML (or TOML) configuration files, environment variables,
// and sensible defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/klauern/notionsync/internal/model"
	"github.com/klauern/notionsync/internal/notion"
	"github.com/klauern/notionsync/internal/render"
	"github.com/klauern/notionsync/internal/sync"
	"github.com/klauern/notionsync/internal/template"
	"github.com/klauern/notionsync/internal/util"
)

// Config represents the complete notionsync configuration.
type Config struct {
	// Notion configures API access
	Notion NotionConfig `yaml:"notion" toml:"notion"`

	// Sync configures where and how files are written
	Sync SyncConfig `yaml:"sync" toml:"sync"`

	// Mappings connect remote properties to frontmatter fields, in output order
	Mappings []model.PropertyMapping `yaml:"mappings" toml:"mappings"`

	// Rules select which records are synced; all must match
	Rules []model.SyncRule `yaml:"rules" toml:"rules"`

	// Cache configures schema caching
	Cache CacheConfig `yaml:"cache" toml:"cache"`

	// Backup configures backups of overwritten files
	Backup BackupConfig `yaml:"backup" toml:"backup"`

	// Output configures display preferences
	Output OutputConfig `yaml:"output" toml:"output"`
}

// NotionConfig holds API settings.
type NotionConfig struct {
	// Token is the integration secret
	Token string `yaml:"token" toml:"token"`
	// DatabaseID is the database to sync
	DatabaseID string `yaml:"database_id" toml:"database_id"`
	// BaseURL overrides the API endpoint
	BaseURL string `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	// APIVersion is sent as the Notion-Version header
	APIVersion string `yaml:"api_version" toml:"api_version"`
	// Timeout bounds each HTTP request
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
	// PageSize is the number of records requested per page (max 100)
	PageSize int `yaml:"page_size" toml:"page_size"`
}

// SyncConfig holds file output settings.
type SyncConfig struct {
	// Vault is the local root directory
	Vault string `yaml:"vault" toml:"vault"`
	// Folder is the vault-relative directory receiving the files
	Folder string `yaml:"folder" toml:"folder"`
	// Extension is appended to every filename
	Extension string `yaml:"extension" toml:"extension"`
	// FilenameProperty names the property used for filenames instead of the title
	FilenameProperty string `yaml:"filename_property,omitempty" toml:"filename_property,omitempty"`
	// DefaultStrategy decides whether existing files are overwritten (overwrite, skip)
	DefaultStrategy string `yaml:"default_strategy" toml:"default_strategy"`
	// Template is inline template text
	Template string `yaml:"template,omitempty" toml:"template,omitempty"`
	// TemplatePath is a vault-relative template file; it wins over Template
	TemplatePath string `yaml:"template_path,omitempty" toml:"template_path,omitempty"`
	// TemplateName selects a built-in template when neither of the above is set
	TemplateName string `yaml:"template_name,omitempty" toml:"template_name,omitempty"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	// Enabled enables or disables caching
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// TTL is the time-to-live for cache entries
	TTL time.Duration `yaml:"ttl" toml:"ttl"`
	// Location is the cache directory path
	Location string `yaml:"location" toml:"location"`
}

// BackupConfig holds backup settings.
type BackupConfig struct {
	// Enabled enables backups before overwriting
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// Location is the backup directory path
	Location string `yaml:"location" toml:"location"`
	// MaxBackups is the maximum number of backups kept per file
	MaxBackups int `yaml:"max_backups" toml:"max_backups"`
}

// OutputConfig holds display preferences.
type OutputConfig struct {
	// Color controls color output (auto, always, never)
	Color string `yaml:"color" toml:"color"`
	// Verbose enables verbose output
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Notion: NotionConfig{
			APIVersion: notion.DefaultAPIVersion,
			Timeout:    notion.DefaultTimeout,
			PageSize:   notion.DefaultPageSize,
		},
		Sync: SyncConfig{
			Vault:           ".",
			Folder:          "Notion",
			Extension:       render.DefaultExtension,
			DefaultStrategy: string(sync.StrategyOverwrite),
		},
		Mappings: []model.PropertyMapping{},
		Rules:    []model.SyncRule{},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      time.Hour,
			Location: util.CachePath(),
		},
		Backup: BackupConfig{
			Enabled:    true,
			Location:   util.BackupsPath(),
			MaxBackups: 10,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// configFileName is the name of the config file.
const configFileName = "config.yaml"

// FilePath returns the path to the config file.
func FilePath() string {
	return filepath.Join(util.ConfigDir(), configFileName)
}

// Load loads the configuration from the default file, merging with defaults.
// If the config file doesn't exist, returns default configuration.
func Load() (*Config, error) {
	cfg, err := LoadFromPath(FilePath())
	if err != nil && os.IsNotExist(err) {
		cfg = Default()
		cfg.applyEnvironment()
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath loads configuration from a specific path. Files ending in
// .toml are decoded as TOML, everything else as YAML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	// #nosec G304 - path is provided by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyEnvironment()
	return cfg, nil
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveToPath(FilePath())
}

// SaveToPath writes the configuration to a specific path, as TOML when the
// path ends in .toml.
func (c *Config) SaveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}

	data, err := c.Marshal(isTOML(path))
	if err != nil {
		return err
	}

	// The file holds the API token.
	return os.WriteFile(path, data, 0o600)
}

// Marshal encodes the configuration as YAML, or TOML when asTOML is set.
func (c *Config) Marshal(asTOML bool) ([]byte, error) {
	if !asTOML {
		return yaml.Marshal(c)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Redacted returns a copy safe to print, with the token masked.
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Notion.Token != "" {
		cp.Notion.Token = "********"
	}
	return &cp
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// applyEnvironment applies environment variable overrides.
// Environment variables follow the pattern NOTIONSYNC_<SECTION>_<KEY>.
func (c *Config) applyEnvironment() {
	// Notion settings
	if v := os.Getenv("NOTIONSYNC_NOTION_TOKEN"); v != "" {
		c.Notion.Token = v
	} else if v := os.Getenv("NOTION_TOKEN"); v != "" && c.Notion.Token == "" {
		c.Notion.Token = v
	}
	if v := os.Getenv("NOTIONSYNC_NOTION_DATABASE_ID"); v != "" {
		c.Notion.DatabaseID = v
	}
	if v := os.Getenv("NOTIONSYNC_NOTION_BASE_URL"); v != "" {
		c.Notion.BaseURL = v
	}
	if v := os.Getenv("NOTIONSYNC_NOTION_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Notion.PageSize = n
		}
	}

	// Sync settings
	if v := os.Getenv("NOTIONSYNC_SYNC_VAULT"); v != "" {
		c.Sync.Vault = v
	}
	if v := os.Getenv("NOTIONSYNC_SYNC_FOLDER"); v != "" {
		c.Sync.Folder = v
	}
	if v := os.Getenv("NOTIONSYNC_SYNC_STRATEGY"); v != "" {
		c.Sync.DefaultStrategy = v
	}
	if v := os.Getenv("NOTIONSYNC_SYNC_TEMPLATE_PATH"); v != "" {
		c.Sync.TemplatePath = v
	}

	// Cache settings
	if v := os.Getenv("NOTIONSYNC_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("NOTIONSYNC_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("NOTIONSYNC_CACHE_LOCATION"); v != "" {
		c.Cache.Location = v
	}

	// Backup settings
	if v := os.Getenv("NOTIONSYNC_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v)
	}
	if v := os.Getenv("NOTIONSYNC_BACKUP_LOCATION"); v != "" {
		c.Backup.Location = v
	}

	// Output settings
	if v := os.Getenv("NOTIONSYNC_OUTPUT_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("NOTIONSYNC_OUTPUT_VERBOSE"); v != "" {
		c.Output.Verbose = parseBool(v)
	}
}

// parseBool parses a boolean from common string representations.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Validate reports every configuration problem that would stop a sync.
func (c *Config) Validate() error {
	var errs Errors

	if strings.TrimSpace(c.Notion.Token) == "" {
		errs = append(errs, &Error{Field: "notion.token", Message: "an integration token is required"})
	}
	if strings.TrimSpace(c.Notion.DatabaseID) == "" {
		errs = append(errs, &Error{Field: "notion.database_id", Message: "a database id is required"})
	}
	if c.Notion.PageSize < 0 || c.Notion.PageSize > notion.DefaultPageSize {
		errs = append(errs, &Error{Field: "notion.page_size", Message: fmt.Sprintf("must be between 1 and %d", notion.DefaultPageSize)})
	}
	if !sync.Strategy(c.Sync.DefaultStrategy).IsValid() {
		errs = append(errs, &Error{Field: "sync.default_strategy", Message: fmt.Sprintf("unknown strategy %q", c.Sync.DefaultStrategy)})
	}
	if c.Sync.TemplateName != "" {
		if _, err := template.Builtin(template.Name(c.Sync.TemplateName)); err != nil {
			errs = append(errs, &Error{Field: "sync.template_name", Message: err.Error()})
		}
	}
	for i, m := range c.Mappings {
		if m.SyncEnabled && strings.TrimSpace(m.LocalField) == "" {
			errs = append(errs, &Error{Field: fmt.Sprintf("mappings[%d].local_field", i), Message: fmt.Sprintf("empty field name for %q", m.RemoteProperty)})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// GetStrategy returns the sync strategy from config, validating it.
func (c *Config) GetStrategy() sync.Strategy {
	strategy := sync.Strategy(c.Sync.DefaultStrategy)
	if strategy.IsValid() {
		return strategy
	}
	return sync.StrategyOverwrite
}

// VaultPath returns the absolute vault root.
func (c *Config) VaultPath() string {
	wd, _ := os.Getwd()
	return util.ExpandPath(c.Sync.Vault, wd)
}

// SyncOptions builds the orchestrator options from the configuration.
func (c *Config) SyncOptions() sync.Options {
	opts := sync.DefaultOptions()
	opts.DatabaseID = c.Notion.DatabaseID
	opts.Folder = c.Sync.Folder
	if c.Sync.Extension != "" {
		opts.Extension = c.Sync.Extension
	}
	opts.FilenameProperty = c.Sync.FilenameProperty
	opts.Template = template.Source{
		Path:   c.Sync.TemplatePath,
		Inline: c.Sync.Template,
		Name:   template.Name(c.Sync.TemplateName),
	}
	opts.Mappings = append([]model.PropertyMapping(nil), c.Mappings...)
	opts.Rules = append([]model.SyncRule(nil), c.Rules...)
	opts.Strategy = c.GetStrategy()
	return opts
}

// NotionOptions builds the API client options from the configuration.
func (c *Config) NotionOptions() notion.Options {
	return notion.Options{
		BaseURL:    c.Notion.BaseURL,
		APIVersion: c.Notion.APIVersion,
		PageSize:   c.Notion.PageSize,
	}
}

// Exists returns true if a config file exists.
func Exists() bool {
	_, err := os.Stat(FilePath())
	return err == nil
}
