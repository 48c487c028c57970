package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"dataviews/internal/domain"
)

// FileName is the config file searched for when no --config is given.
const FileName = "dataviews"

// EnvPrefix prefixes environment overrides, e.g. DATAVIEWS_BACKEND_DSN.
const EnvPrefix = "DATAVIEWS"

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SchemaConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// SyncConfig schedules periodic record refreshes. An empty schedule disables them.
type SyncConfig struct {
	Schedule string `mapstructure:"schedule"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig         `mapstructure:"server"`
	Schema  SchemaConfig         `mapstructure:"schema"`
	Backend domain.BackendConfig `mapstructure:"backend"`
	Views   domain.ViewsConfig   `mapstructure:"views"`
	Sync    SyncConfig           `mapstructure:"sync"`
	Log     LogConfig            `mapstructure:"log"`
}

// SetDefaults registers every key so env overrides apply to all of them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("schema.path", "schema.yaml")
	v.SetDefault("schema.watch", true)
	v.SetDefault("backend.driver", string(domain.BackendMemory))
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.database", "")
	v.SetDefault("backend.table", "records")
	v.SetDefault("backend.latency", 300*time.Millisecond)
	v.SetDefault("views.defaultView", string(domain.ViewGrid))
	v.SetDefault("views.language", "en")
	v.SetDefault("sync.schedule", "")
	v.SetDefault("log.verbose", false)
}

// ReadFile points v at cfgFile, or searches for dataviews.yaml next to the
// executable and then in the working directory. A missing search result is
// not an error; a missing explicit file is. It returns the file used.
func ReadFile(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(ex))
		}
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the backend and views sections.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Views.Validate(); err != nil {
		return fmt.Errorf("views: %w", err)
	}
	if c.Schema.Path == "" {
		return errors.New("schema.path is required")
	}
	return nil
}
