package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	TokenFormatOpaque = "opaque"
	TokenFormatSigned = "signed"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Session   SessionConfig
	Bootstrap BootstrapConfig

	BcryptCost   int `env:"BCRYPT_COST,   default=10"`
	AuditWorkers int `env:"AUDIT_WORKERS, default=4"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=wishlist"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SessionConfig governs how tokens are minted, stored and presented.
type SessionConfig struct {
	Backend string `env:"SESSION_BACKEND, default=memory"`
	// TTL of 0 keeps sessions until they are invalidated.
	TTL           time.Duration `env:"SESSION_TTL,            default=0s"`
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=5m"`
	Shards        int           `env:"SESSION_SHARDS,         default=32"`

	TokenFormat     string `env:"TOKEN_FORMAT, default=opaque"`
	TokenSigningKey string `env:"TOKEN_SIGNING_KEY"`
	// TokenHeader is the request header carrying the token. "Authorization"
	// expects the Bearer scheme; any other header holds the raw token.
	TokenHeader string `env:"TOKEN_HEADER, default=Authorization"`

	RevokeOnRoleChange bool `env:"REVOKE_ON_ROLE_CHANGE, default=false"`
}

// BootstrapConfig optionally seeds an ADMIN account at startup.
type BootstrapConfig struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through lookuper. Tests pass a MapLookuper.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("config: SESSION_BACKEND must be %q or %q", SessionBackendMemory, SessionBackendRedis))
	}

	switch c.Session.TokenFormat {
	case TokenFormatOpaque:
	case TokenFormatSigned:
		if len(c.Session.TokenSigningKey) < 32 {
			errs = append(errs, errors.New("config: TOKEN_SIGNING_KEY must be at least 32 bytes when TOKEN_FORMAT=signed"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: TOKEN_FORMAT must be %q or %q", TokenFormatOpaque, TokenFormatSigned))
	}

	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("config: SESSION_TTL must not be negative"))
	}
	if c.Session.TokenHeader == "" {
		errs = append(errs, errors.New("config: TOKEN_HEADER must not be empty"))
	}
	if (c.Bootstrap.AdminUsername == "") != (c.Bootstrap.AdminPassword == "") {
		errs = append(errs, errors.New("config: BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Session.Backend == SessionBackendRedis
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
