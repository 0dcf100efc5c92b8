// Package config loads the settings of the combo command. Values come from
// defaults, an optional YAML file and COMBO_ environment variables, in that
// order of precedence from lowest to highest.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	combo "github.com/seayoo-io/combo-sdk-go"
)

const envPrefix = "COMBO_"

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Combo    ComboConfig    `koanf:"combo"`
	Server   ServerConfig   `koanf:"server"`
	Store    StoreConfig    `koanf:"store"`
	Redis    RedisConfig    `koanf:"redis"`
	Database DatabaseConfig `koanf:"database"`
	Sweeper  SweeperConfig  `koanf:"sweeper"`
	Logger   LoggerConfig   `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=dev prod"`
}

type ComboConfig struct {
	Endpoint string `koanf:"endpoint"`
	Game     string `koanf:"game" validate:"required"`
	Secret   string `koanf:"secret" validate:"required"`
}

// SDK converts the section into the shared SDK configuration.
func (c ComboConfig) SDK() combo.Config {
	return combo.Config{
		Endpoint: combo.Endpoint(c.Endpoint),
		Game:     c.Game,
		Secret:   combo.Secret(c.Secret),
	}
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"required"`
	NotifyPath      string        `koanf:"notify_path" validate:"required"`
	GMPath          string        `koanf:"gm_path" validate:"required"`
	PublicNotifyURL string        `koanf:"public_notify_url"`
}

type StoreConfig struct {
	Driver string        `koanf:"driver" validate:"required,oneof=memory redis postgres"`
	TTL    time.Duration `koanf:"ttl"`
	Prefix string        `koanf:"prefix"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr" validate:"required"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type SweeperConfig struct {
	Interval  time.Duration `koanf:"interval" validate:"required"`
	BatchSize int           `koanf:"batch_size" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

var defaults = map[string]any{
	"primary.env":            "dev",
	"combo.endpoint":         string(combo.EndpointGlobal),
	"server.port":            "8080",
	"server.read_timeout":    "10s",
	"server.write_timeout":   "10s",
	"server.idle_timeout":    "60s",
	"server.request_timeout": "30s",
	"server.notify_path":     "/combo/notify",
	"server.gm_path":         "/combo/gm",
	"store.driver":           "memory",
	"store.ttl":              "24h",
	"redis.addr":             "localhost:6379",
	"sweeper.interval":       "10m",
	"sweeper.batch_size":     1000,
	"logger.level":           "info",
}

// Load reads the configuration. path may be empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the sections in use. Redis and database settings are
// only required by their store driver.
func (c *Config) Validate() error {
	v := validator.New()
	for _, section := range []any{c.Primary, c.Combo, c.Server, c.Store} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	switch c.Store.Driver {
	case "redis":
		if err := v.Struct(c.Redis); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	case "postgres":
		if err := v.Struct(c.Database); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		if err := v.Struct(c.Sweeper); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return c.Combo.SDK().ValidateWithoutEndpoint()
}
