// Package config loads application configuration for the CLI and the
// status server.
//
// Precedence, highest first: runtime overrides, ARRAYGEN_* environment
// variables, an optional config file, built-in defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Registry RegistryConfig `mapstructure:"registry"`
}

// ServerConfig configures the status server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures CLI and server logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// RegistryConfig locates the run registry.
type RegistryConfig struct {
	Dir string `mapstructure:"dir"`
}

// envSpec maps an environment variable to a config path.
type envSpec struct {
	Name string
	Path string
}

const envPrefix = "ARRAYGEN"

var (
	configMu  sync.Mutex
	appConfig *Config
)

// getEnvSpecs returns the supported environment variable mappings.
func getEnvSpecs() []envSpec {
	return []envSpec{
		{Name: envPrefix + "_HOST", Path: "server.host"},
		{Name: envPrefix + "_PORT", Path: "server.port"},
		{Name: envPrefix + "_READ_TIMEOUT", Path: "server.read_timeout"},
		{Name: envPrefix + "_WRITE_TIMEOUT", Path: "server.write_timeout"},
		{Name: envPrefix + "_IDLE_TIMEOUT", Path: "server.idle_timeout"},
		{Name: envPrefix + "_SHUTDOWN_TIMEOUT", Path: "server.shutdown_timeout"},
		{Name: envPrefix + "_LOG_LEVEL", Path: "logging.level"},
		{Name: envPrefix + "_REGISTRY_DIR", Path: "registry.dir"},
	}
}

// setDefaults installs built-in defaults on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("registry.dir", defaultRegistryDir())
}

// defaultRegistryDir places the run registry under the user config dir,
// falling back to the working directory when none is resolvable.
func defaultRegistryDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".arraygen", "runs")
	}
	return filepath.Join(base, "arraygen", "runs")
}

// Load resolves the configuration and caches it for GetConfig.
//
// Optional runtime overrides (nested maps keyed like the config file)
// take precedence over environment variables and defaults. An optional
// config file is read from $ARRAYGEN_CONFIG when set.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	_ = ctx

	v := viper.New()
	setDefaults(v)

	// Optional config file
	if path := strings.TrimSpace(os.Getenv(envPrefix + "_CONFIG")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// Environment bindings
	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", spec.Name, err)
		}
	}

	// Runtime overrides win over everything
	for _, o := range overrides {
		if err := v.MergeConfigMap(o); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
		// MergeConfigMap sits below Set in viper precedence; re-apply
		// leaves with Set so overrides beat env bindings.
		applySets(v, "", o)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// applySets flattens a nested override map into viper Set calls.
func applySets(v *viper.Viper, prefix string, m map[string]any) {
	for key, val := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			applySets(v, path, nested)
			continue
		}
		v.Set(path, val)
	}
}

// GetConfig returns the most recently loaded configuration, or nil when
// Load has not been called.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}
