package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dyluth/canboard/internal/instance"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "canboard.yml"

// Environment variables that override the file.
const (
	EnvInstance = "CANBOARD_INSTANCE"
	EnvRedisURL = "CANBOARD_REDIS_URL"
	EnvLogLevel = "CANBOARD_LOG_LEVEL"
)

const (
	defaultInstance   = "default"
	defaultRedisURL   = "redis://localhost:6379"
	defaultRPCTimeout = "5s"
	defaultLogLevel   = "info"
	defaultLogFormat  = "console"
	defaultLanguage   = "und"
)

// CanboardConfig represents the top-level canboard.yml configuration
type CanboardConfig struct {
	Version  string         `yaml:"version"`
	Instance string         `yaml:"instance,omitempty"`
	Redis    *RedisConfig   `yaml:"redis,omitempty"`
	RPC      *RPCConfig     `yaml:"rpc,omitempty"`
	Log      *LogConfig     `yaml:"log,omitempty"`
	Sidebar  *SidebarConfig `yaml:"sidebar,omitempty"`
}

// RedisConfig locates the backend's Redis.
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
	// Discover finds the Redis port from the backend's running container
	// instead of using URL.
	Discover bool `yaml:"discover,omitempty"`
}

// RPCConfig tunes remote calls.
type RPCConfig struct {
	Timeout string `yaml:"timeout,omitempty"` // Go duration, default 5s
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
}

// SidebarConfig controls the sidebar tree.
type SidebarConfig struct {
	Language string `yaml:"language,omitempty"` // BCP 47 tag used to order names
}

// Default returns a configuration with every default applied.
func Default() *CanboardConfig {
	c := &CanboardConfig{Version: "1.0"}
	c.applyDefaults()
	return c
}

func (c *CanboardConfig) applyDefaults() {
	if c.Instance == "" {
		c.Instance = defaultInstance
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Redis.URL == "" && !c.Redis.Discover {
		c.Redis.URL = defaultRedisURL
	}
	if c.RPC == nil {
		c.RPC = &RPCConfig{}
	}
	if c.RPC.Timeout == "" {
		c.RPC.Timeout = defaultRPCTimeout
	}
	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.Sidebar == nil {
		c.Sidebar = &SidebarConfig{}
	}
	if c.Sidebar.Language == "" {
		c.Sidebar.Language = defaultLanguage
	}
}

// Validate applies defaults to missing sections and checks every value.
func (c *CanboardConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	c.applyDefaults()

	if err := instance.ValidateName(c.Instance); err != nil {
		return fmt.Errorf("invalid instance: %w", err)
	}

	d, err := time.ParseDuration(c.RPC.Timeout)
	if err != nil {
		return fmt.Errorf("rpc.timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("rpc.timeout must be positive, got %s", c.RPC.Timeout)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format: %s (must be 'console' or 'json')", c.Log.Format)
	}

	if _, err := language.Parse(c.Sidebar.Language); err != nil {
		return fmt.Errorf("sidebar.language: %w", err)
	}

	return nil
}

// RPCTimeout returns the parsed RPC timeout. Call after Validate.
func (c *CanboardConfig) RPCTimeout() time.Duration {
	d, err := time.ParseDuration(c.RPC.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Language returns the parsed sidebar language. Call after Validate.
func (c *CanboardConfig) Language() language.Tag {
	return language.Make(c.Sidebar.Language)
}

// ApplyEnv overrides fields from environment variables read with getenv.
func (c *CanboardConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvInstance); v != "" {
		c.Instance = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		if c.Redis == nil {
			c.Redis = &RedisConfig{}
		}
		c.Redis.URL = v
		c.Redis.Discover = false
	}
	if v := getenv(EnvLogLevel); v != "" {
		if c.Log == nil {
			c.Log = &LogConfig{}
		}
		c.Log.Level = v
	}
}

// Load reads and validates canboard.yml from the specified path
func Load(path string) (*CanboardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config CanboardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
// Environment overrides are applied in both cases.
func LoadOrDefault(path string, getenv func(string) string) (*CanboardConfig, error) {
	var config *CanboardConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		config = Default()
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		config = &CanboardConfig{}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	config.ApplyEnv(getenv)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}
