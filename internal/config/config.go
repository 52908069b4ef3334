// Package config loads service configuration from a YAML file with
// .env and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/internal/source"
	"crm-pipeline/pkg/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Server          ServerConfig            `yaml:"server"`
	LogLevel        string                  `yaml:"log_level"`
	Storage         StorageConfig           `yaml:"storage"`
	Timezone        string                  `yaml:"timezone"`
	DefaultPageSize int                     `yaml:"default_page_size"`
	RefreshInterval time.Duration           `yaml:"refresh_interval"`
	Redis           RedisConfig             `yaml:"redis"`
	S3              S3Config                `yaml:"s3"`
	Retry           source.RetryConfig      `yaml:"retry"`
	Entities        map[string]EntityConfig `yaml:"entities"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr is host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig locates the sqlite database and local export directory.
type StorageConfig struct {
	DBPath    string `yaml:"db_path"`
	ExportDir string `yaml:"export_dir"`
}

// RedisConfig enables the shared record cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// S3Config sends exports to a bucket instead of the local directory
// when Bucket is set.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
	Prefix string `yaml:"prefix"`
}

// SourceConfig says where an entity's records come from.
type SourceConfig struct {
	Type       string   `yaml:"type" json:"type"` // store, file or url
	Path       string   `yaml:"path,omitempty" json:"path,omitempty"`
	Transforms []string `yaml:"transforms,omitempty" json:"transforms,omitempty"`
}

// Source types.
const (
	SourceStore = "store"
	SourceFile  = "file"
	SourceURL   = "url"
)

// EntityConfig describes one list page: which fields the filter
// dimensions read, the default sort, export columns and summary cards.
type EntityConfig struct {
	Title         string             `yaml:"title" json:"title"`
	SearchFields  []string           `yaml:"search_fields" json:"searchFields"`
	CategoryField string             `yaml:"category_field" json:"categoryField"`
	StatusField   string             `yaml:"status_field" json:"statusField"`
	DateField     string             `yaml:"date_field" json:"dateField"`
	DefaultSort   model.SortSpec     `yaml:"default_sort" json:"defaultSort"`
	Source        SourceConfig       `yaml:"source" json:"source"`
	Columns       []model.Column     `yaml:"columns" json:"columns"`
	Metrics       []model.MetricSpec `yaml:"metrics" json:"metrics"`
}

// Criteria fills the dimension fields the client left unset.
func (e EntityConfig) Criteria(c model.FilterCriteria) model.FilterCriteria {
	if len(c.Fields) == 0 {
		c.Fields = e.SearchFields
	}
	if c.CategoryField == "" {
		c.CategoryField = e.CategoryField
	}
	if c.StatusField == "" {
		c.StatusField = e.StatusField
	}
	if c.DateField == "" {
		c.DateField = e.DateField
	}
	return c
}

// Sort falls back to the entity's default sort.
func (e EntityConfig) Sort(s model.SortSpec) model.SortSpec {
	if s.Key == "" {
		return e.DefaultSort
	}
	return s
}

// ResolvedMetrics returns the metric specs with entity field defaults
// applied to their sub-predicates.
func (e EntityConfig) ResolvedMetrics() []model.MetricSpec {
	specs := make([]model.MetricSpec, len(e.Metrics))
	for i, spec := range e.Metrics {
		if spec.Where != nil {
			where := e.Criteria(*spec.Where)
			spec.Where = &where
		}
		specs[i] = spec
	}
	return specs
}

// Load reads and parses the configuration file. An empty path yields
// the built-in defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// LoadFromEnv loads the file (if any) and then applies environment
// overrides. A .env file in the working directory is read first.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CRM_CONFIG")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		cfg.Storage.ExportDir = v
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	cfg.RefreshInterval = utils.ParseDuration(os.Getenv("REFRESH_INTERVAL"), cfg.RefreshInterval)
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	cfg.Redis.TTL = utils.ParseDuration(os.Getenv("REDIS_TTL"), cfg.Redis.TTL)
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.S3.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.S3.Region = v
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "crm.db"
	}
	if cfg.Storage.ExportDir == "" {
		cfg.Storage.ExportDir = "exports"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.DefaultPageSize == 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 5 * time.Minute
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = source.DefaultRetryConfig
	}
	for name, entity := range cfg.Entities {
		if entity.Source.Type == "" {
			entity.Source.Type = SourceStore
		}
		if entity.Title == "" {
			entity.Title = name
		}
		cfg.Entities[name] = entity
	}
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if len(c.Entities) == 0 {
		return fmt.Errorf("no entities configured")
	}
	for name, e := range c.Entities {
		switch e.Source.Type {
		case SourceStore:
		case SourceFile, SourceURL:
			if e.Source.Path == "" {
				return fmt.Errorf("entity %s: source %s requires a path", name, e.Source.Type)
			}
		default:
			return fmt.Errorf("entity %s: unknown source type %q", name, e.Source.Type)
		}
		if err := source.ValidateTransforms(e.Source.Transforms); err != nil {
			return fmt.Errorf("entity %s: %w", name, err)
		}
		if err := pipeline.ValidateMetrics(e.Metrics); err != nil {
			return fmt.Errorf("entity %s: %w", name, err)
		}
		if err := pipeline.ValidateView(model.ViewState{Sort: e.DefaultSort}); err != nil {
			return fmt.Errorf("entity %s: default sort: %w", name, err)
		}
	}
	return nil
}

// Location resolves the day-truncation zone for date filters.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Entity returns one entity definition.
func (c *Config) Entity(name string) (EntityConfig, bool) {
	e, ok := c.Entities[name]
	return e, ok
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
