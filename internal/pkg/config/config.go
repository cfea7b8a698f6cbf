package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Token     TokenConfig
	Security  SecurityConfig
	Throttle  ThrottleConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type TokenConfig struct {
	Secret     string        `env:"TOKEN_SECRET, required"`
	Issuer     string        `env:"TOKEN_ISSUER, default=pricewatch-console"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=1h"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=168h"`
}

type SecurityConfig struct {
	BcryptCost          int    `env:"BCRYPT_COST, default=12"`
	RefreshDigestPepper string `env:"REFRESH_DIGEST_PEPPER"`
}

// ThrottleConfig controls failed-login counting. MaxFailures of 0 disables it.
type ThrottleConfig struct {
	MaxFailures int           `env:"LOGIN_MAX_FAILURES,   default=5"`
	Window      time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// BootstrapConfig describes the administrator created on first start.
type BootstrapConfig struct {
	Email    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	Username string `env:"BOOTSTRAP_ADMIN_USERNAME, default=admin"`
	Password string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// MongoConfig locates the actor directories and the session_events collection.
type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=console_auth"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

// RedisConfig locates the login throttle counters.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR,         default=localhost:6379"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB,           default=0"`
	DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT, default=5s"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates the values envconfig cannot.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return fmt.Errorf("ACCESS_TOKEN_TTL (%s) must be shorter than REFRESH_TOKEN_TTL (%s)", c.Token.AccessTTL, c.Token.RefreshTTL)
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Security.BcryptCost)
	}
	if c.Bootstrap.Email != "" && c.Bootstrap.Password == "" {
		return fmt.Errorf("BOOTSTRAP_ADMIN_PASSWORD is required when BOOTSTRAP_ADMIN_EMAIL is set")
	}
	return nil
}
