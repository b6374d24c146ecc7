package config

import (
	"errors"
	"fmt"
	"net"
	"path"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config stores asset server runtime configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Server ServerConfig

	Assets AssetsConfig

	CORS CORSConfig

	Compression CompressionConfig

	RateLimit RateLimitConfig

	Metrics MetricsConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"SERVER_PORT" envDefault:"5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"20s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"15s"`
}

// AssetsConfig points at the pre-built bundle.
type AssetsConfig struct {
	Root          string `env:"ASSET_ROOT" envDefault:"dist"`
	Entry         string `env:"ASSET_ENTRY" envDefault:"index.html"`
	CacheMaxBytes int64  `env:"ASSET_CACHE_MAX_BYTES" envDefault:"67108864"`
	Watch         bool   `env:"ASSET_WATCH" envDefault:"false"`
}

// CORSConfig lists origins allowed to read assets cross-origin.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

type CompressionConfig struct {
	Enabled bool `env:"COMPRESSION_ENABLED" envDefault:"true"`
}

// RateLimitConfig controls global and per-IP limits.
type RateLimitConfig struct {
	Enabled bool    `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	RPS     float64 `env:"RATE_LIMIT_RPS" envDefault:"100"`
	Burst   int     `env:"RATE_LIMIT_BURST" envDefault:"200"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled     bool   `env:"METRICS_ENABLED" envDefault:"true"`
	BearerToken string `env:"METRICS_BEARER_TOKEN"`
}

// Overrides carries CLI flag values. Empty fields keep the environment value.
type Overrides struct {
	Host  string
	Port  string
	Root  string
	Entry string
}

// Load reads .env (if present) and the environment, then validates the result.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Apply merges CLI overrides and re-validates.
func (c *Config) Apply(o Overrides) error {
	if o.Host != "" {
		c.Server.Host = o.Host
	}
	if o.Port != "" {
		c.Server.Port = o.Port
	}
	if o.Root != "" {
		c.Assets.Root = o.Root
	}
	if o.Entry != "" {
		c.Assets.Entry = o.Entry
	}

	c.normalize()
	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("SERVER_PORT must not be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("SERVER_READ_TIMEOUT, SERVER_WRITE_TIMEOUT and SERVER_IDLE_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout < 0 {
		return errors.New("SERVER_REQUEST_TIMEOUT must not be negative")
	}

	if c.Assets.Root == "" {
		return errors.New("ASSET_ROOT must not be empty")
	}
	if c.Assets.Entry == "" || c.Assets.Entry == "." {
		return fmt.Errorf("ASSET_ENTRY %q must name a file inside ASSET_ROOT", c.Assets.Entry)
	}
	if c.Assets.CacheMaxBytes < 0 {
		return errors.New("ASSET_CACHE_MAX_BYTES must not be negative")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return errors.New("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return errors.New("RATE_LIMIT_BURST must be positive")
		}
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT %q must be json or text", c.LogFormat)
	}

	return nil
}

// Address returns the listen address in host:port form.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Server.Port = strings.TrimSpace(c.Server.Port)
	c.Assets.Root = strings.TrimSpace(c.Assets.Root)

	entry := strings.TrimSpace(c.Assets.Entry)
	if entry != "" {
		entry = strings.TrimPrefix(path.Clean("/"+entry), "/")
		if entry == "" {
			entry = "."
		}
	}
	c.Assets.Entry = entry

	// "none" switches CORS headers off entirely.
	origins := make([]string, 0, len(c.CORS.AllowedOrigins))
	for _, origin := range c.CORS.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" && !strings.EqualFold(origin, "none") {
			origins = append(origins, origin)
		}
	}
	c.CORS.AllowedOrigins = origins
}
