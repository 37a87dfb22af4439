// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for every optional block.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the SHIELD_ prefix. The prefix is removed and the
	rest is lowercased; "." separates nesting levels:

		SHIELD_AUTH.API_KEY        -> auth.api_key        -> Config.Auth.APIKey
		SHIELD_SERVER.PORT         -> server.port         -> Config.Server.Port
		SHIELD_STORAGE.BACKEND     -> storage.backend     -> Config.Storage.Backend

	Shells that refuse dots in variable names can use a double underscore
	instead (SHIELD_AUTH__API_KEY).
*/

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "SHIELD_"

// Storage backends understood by the metadata repository layer.
const (
	StorageNone     = "none"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageQueue    = "queue"
)

// listKeys holds config keys whose env values are comma separated lists.
var listKeys = map[string]bool{
	"server.cors_allowed_origins":        true,
	"metadata.supported_models":          true,
	"observability.health_checks.checks": true,
}

// Config is the root configuration object for the application.
//
// Only Primary and Auth must be provided by the environment; every other block
// starts from DefaultConfig and is overridden key by key.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Metadata      MetadataConfig       `koanf:"metadata" validate:"required"`
	Storage       StorageConfig        `koanf:"storage" validate:"required"`
	Database      DatabaseConfig       `koanf:"database"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	ShutdownTimeout    int      `koanf:"shutdown_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
	// BodyLimit caps the metadata request body, in echo's size notation ("1M", "512K").
	BodyLimit string `koanf:"body_limit" validate:"required"`
}

// AuthConfig stores the shared secret expected in the X-API-Key header.
//
// The key is a secret: it is never logged and never rendered by the status
// endpoints.
type AuthConfig struct {
	APIKey string `koanf:"api_key" validate:"required"`
}

// MetadataConfig controls how POST /metadata bodies are checked.
type MetadataConfig struct {
	// EnforceSchema turns on the model/timestamp/metadata_data checks.
	// When off, any JSON object is accepted and echoed back.
	EnforceSchema bool `koanf:"enforce_schema"`

	// SupportedModels is the allowed set for the model field, lowercase.
	SupportedModels []string `koanf:"supported_models" validate:"required,min=1,dive,required,lowercase"`
}

// StorageConfig selects where accepted metadata payloads go.
type StorageConfig struct {
	Backend    string          `koanf:"backend" validate:"required"`
	SQLitePath string          `koanf:"sqlite_path"`
	Retention  RetentionConfig `koanf:"retention"`
}

// RetentionConfig drives the periodic pruning of old browser_meta rows.
type RetentionConfig struct {
	Enabled bool `koanf:"enabled"`
	// Days is how long records are kept.
	Days int `koanf:"days" validate:"min=0"`
	// Schedule is a cron expression (robfig/cron syntax, descriptors allowed).
	Schedule string `koanf:"schedule"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
// It is only required for the postgres and queue storage backends.
type DatabaseConfig struct {
	Host            string `koanf:"host"`
	Port            int    `koanf:"port"`
	User            string `koanf:"user"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port"; empty means Redis is not used.
type RedisConfig struct {
	Address  string `koanf:"address"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// RateLimitConfig controls the per-client token bucket on metadata routes.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	Rate    float64 `koanf:"rate" validate:"min=0"`
	Burst   int     `koanf:"burst" validate:"min=0"`
	// ExpiresIn is how long an idle client's bucket is kept.
	ExpiresIn time.Duration `koanf:"expires_in"`
}

// DefaultConfig returns a Config with every optional value populated.
// LoadConfig decodes the environment on top of it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               "8080",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			ShutdownTimeout:    30,
			CORSAllowedOrigins: []string{"*"},
			BodyLimit:          "1M",
		},
		Metadata: MetadataConfig{
			EnforceSchema:   false,
			SupportedModels: []string{"gpt", "claude", "gemini", "llama"},
		},
		Storage: StorageConfig{
			Backend:    StorageNone,
			SQLitePath: "shield.db",
			Retention: RetentionConfig{
				Enabled:  false,
				Days:     30,
				Schedule: "@daily",
			},
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		RateLimit: RateLimitConfig{
			Enabled:   false,
			Rate:      10,
			Burst:     20,
			ExpiresIn: 3 * time.Minute,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables, unmarshals it
// on top of DefaultConfig, validates it and returns the resulting config.
//
// Behavior summary:
//   - Loads env vars with prefix SHIELD_
//   - Converts env keys into koanf keys using "." nesting
//   - Validates struct tags, then the cross-field rules in Validate
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load initial env variables: %w", err)
	}

	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// Service name is fixed; environment always follows Primary.Env so logs
	// and traces agree with the runtime.
	mainConfig.Observability.ServiceName = "bltz-shield"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Validate(); err != nil {
		return nil, err
	}

	return mainConfig, nil
}

// envKeyValue maps SHIELD_AUTH.API_KEY to ("auth.api_key", value) and splits
// list-valued keys on commas.
func envKeyValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	if listKeys[key] {
		parts := strings.Split(value, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		return key, items
	}

	return key, value
}

// Validate runs the struct tag validator and then the rules tags cannot
// express: enums and dependencies between blocks.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch c.Storage.Backend {
	case StorageNone, StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case StoragePostgres, StorageQueue:
		if err := c.Database.validate(); err != nil {
			return fmt.Errorf("storage backend %q: %w", c.Storage.Backend, err)
		}
		if c.Storage.Backend == StorageQueue && c.Redis.Address == "" {
			return fmt.Errorf("storage backend %q: redis.address is required", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be one of: none, memory, sqlite, postgres, queue)", c.Storage.Backend)
	}

	// Records need a validated model and timestamp, so anything that stores
	// payloads requires the schema to be enforced.
	if c.Storage.Backend != StorageNone && !c.Metadata.EnforceSchema {
		return fmt.Errorf("storage backend %q requires metadata.enforce_schema=true", c.Storage.Backend)
	}

	if c.Storage.Retention.Enabled {
		if c.Storage.Retention.Days < 1 {
			return fmt.Errorf("storage.retention.days must be at least 1 when retention is enabled")
		}
		if c.Storage.Retention.Schedule == "" {
			return fmt.Errorf("storage.retention.schedule is required when retention is enabled")
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		return fmt.Errorf("rate_limit.rate must be positive when rate limiting is enabled")
	}

	if c.Observability != nil {
		if err := c.Observability.Validate(); err != nil {
			return fmt.Errorf("invalid observability config: %w", err)
		}
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	missing := []string{}
	if d.Host == "" {
		missing = append(missing, "database.host")
	}
	if d.Port == 0 {
		missing = append(missing, "database.port")
	}
	if d.User == "" {
		missing = append(missing, "database.user")
	}
	if d.Name == "" {
		missing = append(missing, "database.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// UsesPostgres reports whether a PostgreSQL pool must be opened.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Backend == StoragePostgres || c.Storage.Backend == StorageQueue
}

// UsesRedis reports whether a Redis client should be created.
func (c *Config) UsesRedis() bool {
	return c.Redis.Address != ""
}
