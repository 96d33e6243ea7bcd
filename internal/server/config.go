package server

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. GUILDCHAT_SERVER_PORT.
const EnvPrefix = "GUILDCHAT"

// ServerConfig holds the HTTP listener and WebSocket security settings.
type ServerConfig struct {
	Port            string        `toml:"port" split_words:"true"`
	AllowedOrigins  []string      `toml:"allowed_origins" split_words:"true"`
	MaxMessageSize  int64         `toml:"max_message_size" split_words:"true"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" split_words:"true"`
}

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `toml:"burst" split_words:"true"`
	RefillInterval time.Duration `toml:"refill_interval" split_words:"true"`
}

// StoreConfig selects the persistence gateway. Driver is "sqlite" or "mysql".
type StoreConfig struct {
	Driver string `toml:"driver" split_words:"true"`
	DSN    string `toml:"dsn" split_words:"true"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `toml:"level" split_words:"true"`
	Format string `toml:"format" split_words:"true"`
}

// RealtimeConfig tunes event handling.
type RealtimeConfig struct {
	OperationTimeout time.Duration `toml:"operation_timeout" split_words:"true"`
	SendBuffer       int           `toml:"send_buffer" split_words:"true"`
}

// Config holds the complete service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" split_words:"true"`
	RateLimit RateLimitConfig `toml:"rate_limit" split_words:"true"`
	Store     StoreConfig     `toml:"store" split_words:"true"`
	Log       LogConfig       `toml:"log" split_words:"true"`
	Realtime  RealtimeConfig  `toml:"realtime" split_words:"true"`
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: ":8080",
			AllowedOrigins: []string{
				"http://localhost:8080",
			},
			MaxMessageSize:  4096,
			ShutdownTimeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "guildchat.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Realtime: RealtimeConfig{
			OperationTimeout: 10 * time.Second,
			SendBuffer:       256,
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	defaults := defaultConfig()

	if cfg.Server.Port == "" {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.MaxMessageSize <= 0 {
		cfg.Server.MaxMessageSize = defaults.Server.MaxMessageSize
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaults.RateLimit.Burst
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaults.RateLimit.RefillInterval
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.Realtime.OperationTimeout <= 0 {
		cfg.Realtime.OperationTimeout = defaults.Realtime.OperationTimeout
	}
	if cfg.Realtime.SendBuffer <= 0 {
		cfg.Realtime.SendBuffer = defaults.Realtime.SendBuffer
	}

	normalizedOrigins, allowAll := normalizeOrigins(cfg.Server.AllowedOrigins)
	cfg.Server.AllowedOrigins = normalizedOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(normalizedOrigins))
	for _, origin := range normalizedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration and returns the sanitized
// result. Passing nil resets to defaults.
func SetConfig(cfg *Config) Config {
	if cfg == nil {
		return sanitizeConfig(defaultConfig())
	}

	copied := *cfg
	copied.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	return sanitizeConfig(copied)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.Server.AllowedOrigins = append([]string(nil), cfg.Server.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// LoadConfig resolves the configuration from defaults, then the TOML file at
// path (skipped when path is empty), then a .env file in the working
// directory, then GUILDCHAT_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	return &cfg, nil
}
