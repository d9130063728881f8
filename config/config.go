package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"

	auth "github.com/goliatone/go-cms-auth"
)

// MinSigningKeyLength is the shortest HS256 secret we accept.
const MinSigningKeyLength = 32

// Config aggregates all runtime settings required by the auth core and
// its tooling.
type Config struct {
	AppName     string
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Logger      LoggerConfig
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Password string
	DB       int
	Prefix   string
}

type AuthConfig struct {
	SigningKey           string
	TokenExpirationHours int
	Issuer               string
	Audience             []string
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration
	MinPasswordLength    int
	PasswordHashCost     int
	LoginMaxAttempts     int
	LoginWindow          time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

var _ auth.Config = (*Config)(nil)

// Load reads configuration from environment variables, optionally seeded
// from the given .env files, and applies defaults. Call Validate before
// handing the result to the auth core.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// a missing .env is not an error
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		AppName:     getString("APP_NAME", "cms-auth"),
		Environment: getString("APP_ENV", "development"),
		Database: DatabaseConfig{
			URL:          getString("DATABASE_URL", "file:cms-auth.db?cache=shared"),
			MaxOpenConns: getInt("DB_MAX_OPEN_CONNS", 25),
		},
		Redis: RedisConfig{
			Enabled:  getBool("REDIS_ENABLED", false),
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			Prefix:   getString("REDIS_RATELIMIT_PREFIX", "ratelimit:"),
		},
		Auth: AuthConfig{
			SigningKey:           os.Getenv("AUTH_SIGNING_KEY"),
			TokenExpirationHours: getInt("AUTH_TOKEN_EXPIRATION_HOURS", auth.DefaultTokenExpiration),
			Issuer:               getString("AUTH_ISSUER", "cms-auth"),
			Audience:             getList("AUTH_AUDIENCE", []string{"cms"}),
			SessionTTL:           getDuration("AUTH_SESSION_TTL", auth.DefaultSessionTTL),
			SessionSweepInterval: getDuration("AUTH_SESSION_SWEEP_INTERVAL", time.Hour),
			MinPasswordLength:    getInt("AUTH_MIN_PASSWORD_LENGTH", auth.DefaultMinPasswordLength),
			PasswordHashCost:     getInt("AUTH_PASSWORD_HASH_COST", 12),
			LoginMaxAttempts:     getInt("AUTH_LOGIN_MAX_ATTEMPTS", auth.DefaultLoginMaxAttempts),
			LoginWindow:          getDuration("AUTH_LOGIN_WINDOW", auth.DefaultLoginWindow),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad(envFiles ...string) *Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Validate checks the settings the auth core can not run without.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.SigningKey, validation.Required, validation.Length(MinSigningKeyLength, 0)),
		validation.Field(&c.Auth.TokenExpirationHours, validation.Required, validation.Min(1)),
		validation.Field(&c.Auth.SessionTTL, validation.Required, validation.Min(time.Minute)),
		validation.Field(&c.Auth.MinPasswordLength, validation.Min(auth.DefaultMinPasswordLength)),
		validation.Field(&c.Auth.PasswordHashCost, validation.Min(4), validation.Max(31)),
		validation.Field(&c.Auth.LoginMaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.Auth.LoginWindow, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.URL, validation.Required),
	); err != nil {
		return err
	}

	if c.Redis.Enabled {
		return validation.ValidateStruct(&c.Redis,
			validation.Field(&c.Redis.URL, validation.Required),
		)
	}

	return nil
}

func (c *Config) GetSigningKey() string         { return c.Auth.SigningKey }
func (c *Config) GetTokenExpiration() int       { return c.Auth.TokenExpirationHours }
func (c *Config) GetIssuer() string             { return c.Auth.Issuer }
func (c *Config) GetAudience() []string         { return c.Auth.Audience }
func (c *Config) GetSessionTTL() time.Duration  { return c.Auth.SessionTTL }
func (c *Config) GetMinPasswordLength() int     { return c.Auth.MinPasswordLength }
func (c *Config) GetPasswordHashCost() int      { return c.Auth.PasswordHashCost }
func (c *Config) GetLoginMaxAttempts() int      { return c.Auth.LoginMaxAttempts }
func (c *Config) GetLoginWindow() time.Duration { return c.Auth.LoginWindow }
func (c *Config) GetSessionSweepInterval() time.Duration {
	return c.Auth.SessionSweepInterval
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
