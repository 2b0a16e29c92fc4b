// Package config loads service configuration from a YAML file with
// environment variable overrides, in that order of precedence: defaults,
// file, environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// memory | postgres | redis
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		// one | quorum
		Consistency string `yaml:"consistency"`
		Redis       struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Auth struct {
		JWTSecret    string        `yaml:"jwt_secret"`
		Issuer       string        `yaml:"issuer"`
		AccessTTL    time.Duration `yaml:"access_ttl"`
		FailureDelay time.Duration `yaml:"failure_delay"`
	} `yaml:"auth"`

	Bootstrap struct {
		// AdminPassword seeds the system admin on first start.
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`
}

// Default returns the built-in defaults.
func Default() Config {
	var c Config
	c.App.Env = "dev"
	c.Server.Addr = ":8080"
	c.Log.Level = "info"
	c.Storage.Driver = "memory"
	c.Storage.Consistency = "quorum"
	c.Auth.Issuer = "tablebook"
	c.Auth.AccessTTL = 15 * time.Minute
	c.Auth.FailureDelay = time.Second
	c.Bootstrap.AdminPassword = "adminadmin"
	return c
}

// Load reads path (optional) and applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyEnv()
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	strVar(&c.App.Env, "TABLEBOOK_ENV")
	strVar(&c.Server.Addr, "TABLEBOOK_ADDR")
	strVar(&c.Log.Level, "TABLEBOOK_LOG_LEVEL")
	strVar(&c.Storage.Driver, "TABLEBOOK_STORAGE_DRIVER")
	strVar(&c.Storage.DSN, "TABLEBOOK_STORAGE_DSN")
	strVar(&c.Storage.Redis.Addr, "TABLEBOOK_REDIS_ADDR")
	strVar(&c.Storage.Redis.Password, "TABLEBOOK_REDIS_PASSWORD")
	intVar(&c.Storage.Redis.DB, "TABLEBOOK_REDIS_DB")
	strVar(&c.Storage.Redis.Prefix, "TABLEBOOK_REDIS_PREFIX")
	strVar(&c.Auth.JWTSecret, "TABLEBOOK_JWT_SECRET")
	strVar(&c.Auth.Issuer, "TABLEBOOK_JWT_ISSUER")
	durVar(&c.Auth.AccessTTL, "TABLEBOOK_ACCESS_TTL")
	durVar(&c.Auth.FailureDelay, "TABLEBOOK_AUTH_FAILURE_DELAY")
	strVar(&c.Bootstrap.AdminPassword, "TABLEBOOK_ADMIN_PASSWORD")
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "postgres", "redis":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: postgres driver requires storage.dsn")
	}
	if c.Storage.Driver == "redis" && c.Storage.Redis.Addr == "" {
		return fmt.Errorf("config: redis driver requires storage.redis.addr")
	}
	return nil
}

func strVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func intVar(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func durVar(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
