// Package config loads the application configuration shared by the console and the reference backend.
package config

import (
	"context"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	goredis "github.com/redis/go-redis/v9"
	"github.com/skybi/compliance-console/internal/session"
	"github.com/skybi/compliance-console/internal/session/storage/file"
	"github.com/skybi/compliance-console/internal/session/storage/inmem"
	"github.com/skybi/compliance-console/internal/session/storage/redis"
)

// Session storage drivers selectable using AC_SESSION_DRIVER
const (
	SessionDriverFile  = "file"
	SessionDriverInmem = "inmem"
	SessionDriverRedis = "redis"
)

// Config represents the application configuration structure
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"dev"`

	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8000"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	SessionDriver       string `envconfig:"SESSION_DRIVER" default:"file"`
	SessionFile         string `envconfig:"SESSION_FILE"`
	SessionRedisAddress string `envconfig:"SESSION_REDIS_ADDRESS" default:"localhost:6379"`
	SessionRedisPrefix  string `envconfig:"SESSION_REDIS_PREFIX" default:"compliance-console"`

	ServerListenAddress string `envconfig:"SERVER_LISTEN_ADDRESS" default:":8000"`
	ServerAllowedOrigin string `envconfig:"SERVER_ALLOWED_ORIGIN" default:"*"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	TokenSecret   string        `envconfig:"TOKEN_SECRET"`
	TokenLifetime time.Duration `envconfig:"TOKEN_LIFETIME" default:"30m"`

	AdminUsername string `envconfig:"ADMIN_USERNAME" default:"admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	SeedRules     bool   `envconfig:"SEED_RULES" default:"false"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("ac", config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.EqualFold(config.Environment, "prod")
}

// SessionStorage creates the session storage driver selected by SessionDriver.
// The returned close function releases the driver's resources and is never nil.
func (config *Config) SessionStorage(ctx context.Context) (session.Storage, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(config.SessionDriver) {
	case SessionDriverInmem:
		driver, err := inmem.New()
		if err != nil {
			return nil, nil, err
		}
		return driver, noop, nil
	case SessionDriverRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr: config.SessionRedisAddress,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		driver := redis.New(client, config.SessionRedisPrefix)
		return driver, driver.Close, nil
	case SessionDriverFile, "":
		driver, err := file.New(config.SessionFile)
		if err != nil {
			return nil, nil, err
		}
		return driver, noop, nil
	default:
		return nil, nil, &UnknownSessionDriverError{Driver: config.SessionDriver}
	}
}

// UnknownSessionDriverError is returned when AC_SESSION_DRIVER names an unsupported driver
type UnknownSessionDriverError struct {
	Driver string
}

func (err *UnknownSessionDriverError) Error() string {
	return "unknown session driver '" + err.Driver + "' (supported: file, inmem, redis)"
}
