// Package config loads runtime settings from the environment.
//
// Variables carry the TODOS_ prefix and use a double underscore for nesting,
// so TODOS_DATABASE__HOST lands in Config.Database.Host. A .env file in the
// working directory is loaded first when present, and a bare DATABASE_URL is
// honoured for hosted Postgres.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TODOS_"

const (
	StorePG      = "pg"
	StoreSession = "session"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

type Config struct {
	Env      string         `koanf:"env" validate:"required"`
	Store    string         `koanf:"store" validate:"oneof=pg session"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Redis    RedisConfig    `koanf:"redis"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"gt=0"`
}

// DatabaseConfig holds either a full URL or the discrete connection fields.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=0,lte=65535"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConns        int32         `koanf:"max_conns" validate:"gte=1"`
	MinConns        int32         `koanf:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

type SessionConfig struct {
	Backend      string        `koanf:"backend" validate:"oneof=memory redis"`
	TTL          time.Duration `koanf:"ttl" validate:"gt=0"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
}

type AuthConfig struct {
	// Users is "name:bcrypthash,..." for the session-backed store.
	Users string `koanf:"users"`
}

type LogConfig struct {
	Level              string        `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format             string        `koanf:"format" validate:"oneof=console json"`
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`
}

func Default() *Config {
	return &Config{
		Env:   "development",
		Store: StorePG,
		Server: ServerConfig{
			Addr:         ":3000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "todo_lists",
			SSLMode:         "disable",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
		},
		Session: SessionConfig{
			Backend: SessionMemory,
			TTL:     24 * time.Hour,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the environment over Default and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	if !k.Exists("database.url") {
		err = k.Load(env.Provider("DATABASE_URL", ".", func(s string) string {
			if s != "DATABASE_URL" {
				return ""
			}
			return "database.url"
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("could not load DATABASE_URL: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Store == StorePG && c.Database.URL == "" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			return fmt.Errorf("config validation failed: database url or host, user and name are required")
		}
	}
	if c.Session.Backend == SessionRedis && c.Redis.Addr == "" {
		return fmt.Errorf("config validation failed: redis addr is required for the redis session backend")
	}
	return nil
}

// DSN returns Database.URL, or builds one from the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}
