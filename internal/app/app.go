// Package app assembles the pieces shared by the server and the CLI.
package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"crm-pipeline/internal/config"
	"crm-pipeline/internal/source"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewLogger returns a console logger at the given level. Unknown levels
// fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

// DefaultLogger logs to stderr.
func DefaultLogger(level string) zerolog.Logger {
	return NewLogger(os.Stderr, level)
}

// Deps are the optional backends a registry can use.
type Deps struct {
	Datasets source.DatasetLoader
	Redis    *redis.Client
	Client   *http.Client
	Logger   zerolog.Logger
}

// BuildRegistry maps every configured entity to a provider. File and
// URL sources retry transient failures; with Redis every provider is
// fronted by the shared cache.
func BuildRegistry(cfg *config.Config, deps Deps) (*source.Registry, error) {
	reg := source.NewRegistry()
	for name, ec := range cfg.Entities {
		p, err := newProvider(cfg, name, ec, deps)
		if err != nil {
			return nil, err
		}
		if deps.Redis != nil {
			p = source.NewRedisCache(deps.Redis, name, p, cfg.Redis.TTL, deps.Logger)
		}
		reg.Register(name, p)
	}
	return reg, nil
}

func newProvider(cfg *config.Config, name string, ec config.EntityConfig, deps Deps) (source.Provider, error) {
	switch ec.Source.Type {
	case config.SourceStore, "":
		if deps.Datasets == nil {
			return nil, fmt.Errorf("entity %s: store source needs a database", name)
		}
		return &source.StoreProvider{
			Store:      deps.Datasets,
			Entity:     name,
			Transforms: ec.Source.Transforms,
		}, nil
	case config.SourceFile, config.SourceURL:
		file := &source.FileProvider{
			Path:       ec.Source.Path,
			Transforms: ec.Source.Transforms,
			Client:     deps.Client,
		}
		return source.WithRetry(name, file, cfg.Retry, deps.Logger), nil
	default:
		return nil, fmt.Errorf("entity %s: unknown source type %q", name, ec.Source.Type)
	}
}

// NewRedis connects to Redis when an address is configured.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
