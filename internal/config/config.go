// Package config loads hierad's process configuration from a YAML file,
// with environment-variable overrides for the settings most commonly
// adjusted in containerised deployments.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is hierad's top-level configuration.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Mongo MongoConfig `yaml:"mongo"`
	Log   LogConfig   `yaml:"log"`
}

// HTTPConfig configures the admin/lookup HTTP surface (A4).
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// MongoConfig configures the document-store collaborator.
type MongoConfig struct {
	URI              string        `yaml:"uri"`
	Database         string        `yaml:"database"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout"`
	ChangeStreamPoll time.Duration `yaml:"change_stream_poll_interval"`
}

// LogConfig configures zap (A2).
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns hierad's built-in defaults, overridden by anything a
// loaded file or the environment sets.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8090",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Mongo: MongoConfig{
			URI:              "mongodb://localhost:27017",
			Database:         "hieraengine",
			ConnectTimeout:   10 * time.Second,
			ChangeStreamPoll: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path (if non-empty and present) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HIERAD_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("HIERAD_MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("HIERAD_MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}
	if v := os.Getenv("HIERAD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HIERAD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("HIERAD_CHANGE_STREAM_POLL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			cfg.Mongo.ChangeStreamPoll = time.Duration(seconds) * time.Second
		}
	}
}
