// internal/config/config.go

// Package config resolves mavekit settings from flags, MAVEKIT_* environment
// variables, an optional YAML file and built-in defaults, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys shared by flags, env and the config file.
const (
	KeyOutputDir        = "output_dir"
	KeyCatalog          = "catalog"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyServerAddr       = "server.addr"
	KeyPredictorTimeout = "predictor.timeout"
)

const EnvPrefix = "MAVEKIT"

type Config struct {
	OutputDir string
	Catalog   string
	Log       LogConfig
	Server    ServerConfig
	Predictor PredictorConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	Addr string
}

type PredictorConfig struct {
	Timeout time.Duration
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()

	// Defaults
	v.SetDefault(KeyOutputDir, "outputs_global_analysis")
	v.SetDefault(KeyCatalog, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyServerAddr, ":8080")
	v.SetDefault(KeyPredictorTimeout, "60s")

	// Env: MAVEKIT_OUTPUT_DIR, MAVEKIT_LOG_LEVEL, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile merges a YAML config file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Load materialises v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	timeout, err := time.ParseDuration(v.GetString(KeyPredictorTimeout))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPredictorTimeout, err)
	}
	cfg := &Config{
		OutputDir: v.GetString(KeyOutputDir),
		Catalog:   v.GetString(KeyCatalog),
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Server: ServerConfig{
			Addr: v.GetString(KeyServerAddr),
		},
		Predictor: PredictorConfig{
			Timeout: timeout,
		},
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyOutputDir)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("%s: want text|json, got %q", KeyLogFormat, cfg.Log.Format)
	}
	return cfg, nil
}
