// Package config holds the service configuration. It is parsed once at startup
// and handed to the components that need it; nothing reads it globally.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/password"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"gandalf"`
	AppHost string `env:"APP_HOST" envDefault:"localhost"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	Auth     AuthConfig
	Password PasswordConfig
	Sessions SessionStoreConfig
	Email    EmailConfig
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`
	Audience  string `env:"JWT_AUDIENCE" envDefault:"app.gandalf"`
	// minutes
	AccessTokenExpiration int `env:"ACCESS_TOKEN_EXPIRATION" envDefault:"15"`
	// hours
	RefreshTokenExpiration int           `env:"REFRESH_TOKEN_EXPIRATION" envDefault:"30"`
	SessionExpiration      time.Duration `env:"SESSION_EXPIRATION" envDefault:"720h"`
}

type PasswordConfig struct {
	MemoryKiB   uint32 `env:"PASSWORD_MEMORY_KIB" envDefault:"19456"`
	Iterations  uint32 `env:"PASSWORD_ITERATIONS" envDefault:"2"`
	Parallelism uint8  `env:"PASSWORD_PARALLELISM" envDefault:"2"`
}

type SessionStoreConfig struct {
	Store         string `env:"SESSION_STORE" envDefault:"postgres"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type EmailConfig struct {
	QueueSize   int           `env:"EMAIL_QUEUE_SIZE" envDefault:"256"`
	Workers     int           `env:"EMAIL_WORKERS" envDefault:"2"`
	MaxAttempts int           `env:"EMAIL_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay  time.Duration `env:"EMAIL_RETRY_DELAY" envDefault:"2s"`
}

// Load parses the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

// LoadSessions parses only the session store settings, for tools that never sign
// tokens and so have no JWT_SECRET.
func LoadSessions() (SessionStoreConfig, error) {
	cfg, err := env.ParseAs[SessionStoreConfig]()
	if err != nil {
		return cfg, fmt.Errorf("parse session store config: %w", err)
	}
	return cfg, nil
}

// LoadPassword parses only the Argon2 cost settings.
func LoadPassword() (password.Params, error) {
	pc, err := env.ParseAs[PasswordConfig]()
	if err != nil {
		return password.Params{}, fmt.Errorf("parse password config: %w", err)
	}
	return Config{Password: pc}.PasswordParams(), nil
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that would produce tokens or sessions that are already expired.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.AccessTokenExpiration <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRATION must be positive"))
	}
	if c.Auth.RefreshTokenExpiration <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRATION must be positive"))
	}
	if c.Auth.SessionExpiration <= 0 {
		errs = append(errs, errors.New("SESSION_EXPIRATION must be positive"))
	}
	switch c.Sessions.Store {
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be postgres or redis, got %q", c.Sessions.Store))
	}
	if c.Email.Workers <= 0 || c.Email.QueueSize <= 0 {
		errs = append(errs, errors.New("EMAIL_WORKERS and EMAIL_QUEUE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.AppPort)
}

// Issuer is the iss claim of access tokens.
func (c Config) Issuer() string {
	return c.AppHost
}

// PasswordParams converts the configured Argon2 costs.
func (c Config) PasswordParams() password.Params {
	return password.Params{
		MemoryKiB:   c.Password.MemoryKiB,
		Iterations:  c.Password.Iterations,
		Parallelism: c.Password.Parallelism,
	}
}
