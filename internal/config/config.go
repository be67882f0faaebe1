// Package config loads server configuration from an optional YAML file,
// an optional .env file and DEVFOLIO_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DEVFOLIO_"

// Config is the complete server configuration.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	GRPC     GRPC     `koanf:"grpc"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Limiter  Limiter  `koanf:"limiter"`
	Kafka    Kafka    `koanf:"kafka"`
	Log      Log      `koanf:"log"`
}

type HTTP struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	BodyLimit       string        `koanf:"body_limit"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is requests per second per client IP; 0 disables.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// GRPC configures the health listener. An empty address disables it.
type GRPC struct {
	HealthAddr string        `koanf:"health_addr"`
	CheckEvery time.Duration `koanf:"check_every"`
	Reflection bool          `koanf:"reflection"`
}

// Database configures storage. An empty DSN runs on in-memory storage.
type Database struct {
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

type Auth struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
	// ConcealExistence reports missing resources as forbidden to non-admins.
	ConcealExistence bool `koanf:"conceal_existence"`
}

type Limiter struct {
	Enabled  bool          `koanf:"enabled"`
	Window   time.Duration `koanf:"window"`
	MaxFails int           `koanf:"max_fails"`
	BlockFor time.Duration `koanf:"block_for"`
}

// Kafka configures the audit publisher. No brokers disables it.
type Kafka struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

type Log struct {
	Development bool   `koanf:"development"`
	Level       string `koanf:"level"`
}

// Default returns the configuration used where nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			BodyLimit:       "1M",
			CORSOrigins:     []string{"*"},
			RateLimit:       20,
			RateBurst:       40,
		},
		GRPC:     GRPC{CheckEvery: 10 * time.Second},
		Database: Database{Migrate: true},
		Auth: Auth{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Limiter: Limiter{
			Enabled:  true,
			Window:   15 * time.Minute,
			MaxFails: 5,
			BlockFor: 15 * time.Minute,
		},
		Kafka: Kafka{Topic: "devfolio.auth-events"},
		Log:   Log{Level: "info"},
	}
}

// Load reads the optional dotenv file into the process environment, then
// builds the config from defaults, the optional YAML file and the environment.
func Load(yamlPath, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return load(yamlPath)
}

func load(yamlPath string) (*Config, error) {
	k := koanf.New(".")

	if yamlPath != "" {
		if _, err := os.Stat(yamlPath); err == nil {
			if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("read %s: %w", yamlPath, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", yamlPath, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys take comma separated values from the environment.
var listKeys = map[string]bool{"kafka.brokers": true, "http.cors_origins": true}

// envKey maps DEVFOLIO_AUTH_ACCESS_TTL to auth.access_ttl: the first
// underscore after the prefix separates section from field.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	k = strings.Replace(k, "_", ".", 1)
	if listKeys[k] {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return k, out
	}
	return k, v
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var problems []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.AccessTTL <= 0 {
		problems = append(problems, errors.New("auth.access_ttl must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 {
		problems = append(problems, errors.New("auth.refresh_ttl must be positive"))
	}
	if c.Limiter.Enabled && (c.Limiter.MaxFails <= 0 || c.Limiter.Window <= 0 || c.Limiter.BlockFor <= 0) {
		problems = append(problems, errors.New("limiter window, max_fails and block_for must be positive"))
	}
	if c.HTTP.Addr == "" {
		problems = append(problems, errors.New("http.addr is required"))
	}
	if c.GRPC.HealthAddr != "" && c.GRPC.CheckEvery <= 0 {
		problems = append(problems, errors.New("grpc.check_every must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		problems = append(problems, errors.New("kafka.topic is required with brokers"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}
