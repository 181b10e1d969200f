// Package config loads service configuration from defaults overridden by
// SWASTHYA_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before mapping them onto
// config keys, e.g. SWASTHYA_AUTH_SECRET -> auth.secret.
const EnvPrefix = "SWASTHYA_"

// Config holds every runtime setting of the API server.
type Config struct {
	Server ServerConfig `koanf:"server"`
	Auth   AuthConfig   `koanf:"auth"`
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	IdleTimeout     time.Duration `koanf:"idletimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
	RateLimitRPS    int           `koanf:"ratelimitrps"`
	RateLimitBurst  int           `koanf:"ratelimitburst"`
	MaxBodyBytes    int64         `koanf:"maxbodybytes"`
}

type AuthConfig struct {
	// Secret signs both access and refresh tokens. The server refuses to
	// start without it.
	Secret       string        `koanf:"secret"`
	Issuer       string        `koanf:"issuer"`
	AccessTTL    time.Duration `koanf:"accessttl"`
	RefreshTTL   time.Duration `koanf:"refreshttl"`
	CookieSecure bool          `koanf:"cookiesecure"`
}

type DBConfig struct {
	DSN          string        `koanf:"dsn"`
	MaxOpenConns int           `koanf:"maxopenconns"`
	MaxIdleConns int           `koanf:"maxidleconns"`
	ConnLifetime time.Duration `koanf:"connlifetime"`
	Migrate      bool          `koanf:"migrate"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  100,
			MaxBodyBytes:    1 << 20,
		},
		Auth: AuthConfig{
			Issuer:       "swasthya",
			AccessTTL:    15 * time.Minute,
			RefreshTTL:   14 * 24 * time.Hour,
			CookieSecure: false,
		},
		DB: DBConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			ConnLifetime: 30 * time.Minute,
			Migrate:      false,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// Load builds the effective configuration: struct defaults first, then
// environment overrides.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	// SWASTHYA_SERVER_ADDR -> server.addr
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot safely run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return errors.New("config: auth secret is required (SWASTHYA_AUTH_SECRET)")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server addr is required")
	}
	return nil
}
