// Package config enables config file parsing.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"

	"github.com/vestlock/vestlock/log"
)

// Config contains the CLI configuration.
type Config struct {
	Server  *ServerConfig  `koanf:"server"`
	Log     *LogConfig     `koanf:"log"`
	Metrics *MetricsConfig `koanf:"metrics"`
}

// Validate performs config validation.
func (cfg *Config) Validate() error {
	if cfg.Server != nil {
		if err := cfg.Server.Validate(); err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	if cfg.Log != nil {
		if err := cfg.Log.Validate(); err != nil {
			return fmt.Errorf("log: %w", err)
		}
	}
	if cfg.Metrics != nil {
		if err := cfg.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}

// ServerConfig contains the API server configuration.
type ServerConfig struct {
	// Endpoint is the address at which the API is served.
	Endpoint string `koanf:"endpoint"`

	Storage *StorageConfig `koanf:"storage"`
}

// Validate validates the server configuration.
func (cfg *ServerConfig) Validate() error {
	if cfg.Endpoint == "" {
		return fmt.Errorf("malformed server endpoint '%s'", cfg.Endpoint)
	}
	if cfg.Storage == nil {
		return fmt.Errorf("storage not configured")
	}
	return cfg.Storage.Validate()
}

// StorageBackend is the set of supported storage backends.
type StorageBackend uint

const (
	// BackendPostgres is the PostgreSQL storage backend.
	BackendPostgres StorageBackend = iota
	// BackendMemory is the in-memory storage backend. Balances do not survive
	// a restart; intended for development and tests only.
	BackendMemory
)

// String returns the string representation of a StorageBackend.
func (b *StorageBackend) String() string {
	switch *b {
	case BackendPostgres:
		return "postgres"
	case BackendMemory:
		return "memory"
	default:
		panic("config: unsupported storage backend")
	}
}

// Set sets the StorageBackend to the value specified by the provided string.
func (b *StorageBackend) Set(s string) error {
	switch strings.ToLower(s) {
	case "postgres":
		*b = BackendPostgres
	case "memory":
		*b = BackendMemory
	default:
		return fmt.Errorf("config: invalid storage backend: '%s'", s)
	}
	return nil
}

// StorageConfig contains the storage layer configuration.
type StorageConfig struct {
	// Backend is the storage backend to select, "postgres" or "memory".
	Backend string `koanf:"backend"`

	// Endpoint is the storage endpoint from which to read/write data.
	// Unused by the memory backend.
	Endpoint string `koanf:"endpoint"`

	// Migrations is the source of schema migrations, e.g.
	// file://storage/migrations. Unused by the memory backend.
	Migrations string `koanf:"migrations"`
}

// Validate validates the storage configuration.
func (cfg *StorageConfig) Validate() error {
	var backend StorageBackend
	if err := backend.Set(cfg.Backend); err != nil {
		return err
	}
	if backend == BackendPostgres {
		if cfg.Endpoint == "" {
			return fmt.Errorf("malformed storage endpoint '%s'", cfg.Endpoint)
		}
		if cfg.Migrations == "" {
			return fmt.Errorf("invalid path to migrations '%s'", cfg.Migrations)
		}
	}
	return nil
}

// LogConfig contains the logging configuration.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
	File   string `koanf:"file"`
}

// Validate validates the logging configuration.
func (cfg *LogConfig) Validate() error {
	var format log.Format
	if err := format.Set(cfg.Format); err != nil {
		return err
	}
	var level log.Level
	return level.Set(cfg.Level)
}

// MetricsConfig contains the metrics configuration.
type MetricsConfig struct {
	PullEndpoint string `koanf:"pull_endpoint"`
}

// Validate validates the metrics configuration.
func (cfg *MetricsConfig) Validate() error {
	if cfg.PullEndpoint == "" {
		return fmt.Errorf("malformed Prometheus pull endpoint '%s'", cfg.PullEndpoint)
	}
	return nil
}

// InitConfig initializes configuration from file.
func InitConfig(f string) (*Config, error) {
	var config Config
	k := koanf.New(".")

	// Load configuration from the yaml config.
	if err := k.Load(file.Provider(f), yaml.Parser()); err != nil {
		return nil, err
	}

	// Load environment variables and merge into the loaded config.
	if err := k.Load(env.Provider("", ".", func(s string) string {
		// `__` is used as a hierarchy delimiter.
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	// Unmarshal into config.
	if err := k.Unmarshal("", &config); err != nil {
		return nil, err
	}

	// Validate config.
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
