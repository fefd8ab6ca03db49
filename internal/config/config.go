package config

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Environment overrides
const (
	EnvConfig   = "HOUSING_DASHBOARD_CONFIG"
	EnvDataset  = "HOUSING_DASHBOARD_DATASET"
	EnvLogLevel = "HOUSING_DASHBOARD_LOG_LEVEL"
	EnvPort     = "PORT"
)

type Server struct {
	Addr           string   `yaml:"addr"`
	SessionTTL     string   `yaml:"session_ttl"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Dataset describes where the initiative table is read from.
// File sources (csv, xlsx) use Path; SQL sources (postgres, sqlite) use DSN and Table.
type Dataset struct {
	Type  string `yaml:"type"`
	Path  string `yaml:"path,omitempty"`
	Sheet string `yaml:"sheet,omitempty"`
	DSN   string `yaml:"dsn,omitempty"`
	Table string `yaml:"table,omitempty"`
}

// Fields maps record attributes to source column names
type Fields struct {
	ID          string `yaml:"id"`
	Category    string `yaml:"category"`
	Subcategory string `yaml:"subcategory"`
	Location    string `yaml:"location"`
	Stakeholder string `yaml:"stakeholder"`
	Timeline    string `yaml:"timeline"`
	Initiative  string `yaml:"initiative"`
}

type Assets struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	Require   bool   `yaml:"require"`
}

type Display struct {
	Title        string   `yaml:"title"`
	TableColumns []string `yaml:"table_columns"`
}

type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Server  Server  `yaml:"server"`
	Dataset Dataset `yaml:"dataset"`
	Fields  Fields  `yaml:"fields"`
	Assets  Assets  `yaml:"assets"`
	Display Display `yaml:"display"`
	Log     Log     `yaml:"log"`
}

// SessionTTLDuration returns the idle lifetime of a filter session, default 12h
func (c *Config) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// AssetExtension returns the asset file extension without a leading dot
func (c *Config) AssetExtension() string {
	ext := strings.TrimPrefix(c.Assets.Extension, ".")
	if ext == "" {
		return "png"
	}
	return ext
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "housing-dashboard", "config.yaml")
}

// Defaults returns the embedded configuration
func Defaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing embedded config")
	}
	return &cfg, nil
}

// Load reads the config at path, falling back to $HOUSING_DASHBOARD_CONFIG and
// then the XDG config path. A missing file yields the embedded defaults.
// Values in the file are layered over the defaults, then env overrides apply.
func Load(path string) (*Config, error) {
	cfg, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrap(err, "reading config")
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}

	cfg.applyEnvOverrides()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if port := os.Getenv(EnvPort); port != "" {
		c.Server.Addr = ":" + port
	}
	if ds := os.Getenv(EnvDataset); ds != "" {
		c.Dataset.Path = ds
		if t := typeFromPath(ds); t != "" {
			c.Dataset.Type = t
		}
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
}

func typeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return ""
}

// Validate checks the dataset source and the field mapping
func Validate(cfg *Config) error {
	switch cfg.Dataset.Type {
	case "csv", "xlsx":
		if cfg.Dataset.Path == "" {
			return errors.Errorf("dataset: path is required for type %q", cfg.Dataset.Type)
		}
	case "postgres", "sqlite":
		if cfg.Dataset.DSN == "" && cfg.Dataset.Path == "" {
			return errors.Errorf("dataset: dsn is required for type %q", cfg.Dataset.Type)
		}
		if cfg.Dataset.Table == "" {
			return errors.Errorf("dataset: table is required for type %q", cfg.Dataset.Type)
		}
	default:
		return errors.Errorf("dataset: unknown type %q (valid: csv, xlsx, postgres, sqlite)", cfg.Dataset.Type)
	}

	required := map[string]string{
		"id":       cfg.Fields.ID,
		"category": cfg.Fields.Category,
		"location": cfg.Fields.Location,
	}
	for name, col := range required {
		if strings.TrimSpace(col) == "" {
			return errors.Errorf("fields: %s column is required", name)
		}
	}
	return nil
}
