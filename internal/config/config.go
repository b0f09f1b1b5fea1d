package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	defaultAddr            = ":8080"
	defaultAccessTTL       = 30 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultBcryptCost      = 12
	defaultLockoutLimit    = 5
	defaultLockoutDuration = 30 * time.Minute
	defaultMaxBodyBytes    = 1 << 20
)

// Config is the single validated configuration struct for the service.
// It is constructed once at startup and passed by reference; components
// never read the environment themselves.
type Config struct {
	Addr         string
	PostgresDSN  string
	RedisAddr    string
	AuthSecret   string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	BcryptCost   int
	LockoutLimit int
	LockoutFor   time.Duration
	MaxBodyBytes int64
}

// Load reads configuration from the environment, consulting an optional
// .env file first. Missing optional values fall back to defaults; the
// returned Config is already validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         envOr("FINLEDGER_ADDR", defaultAddr),
		PostgresDSN:  strings.TrimSpace(os.Getenv("FINLEDGER_PG_DSN")),
		RedisAddr:    strings.TrimSpace(os.Getenv("FINLEDGER_REDIS_ADDR")),
		AuthSecret:   strings.TrimSpace(os.Getenv("FINLEDGER_AUTH_SECRET")),
		AccessTTL:    defaultAccessTTL,
		RefreshTTL:   defaultRefreshTTL,
		BcryptCost:   defaultBcryptCost,
		LockoutLimit: defaultLockoutLimit,
		LockoutFor:   defaultLockoutDuration,
		MaxBodyBytes: defaultMaxBodyBytes,
	}

	var err error
	if cfg.AccessTTL, err = envDuration("FINLEDGER_ACCESS_TTL", cfg.AccessTTL); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = envDuration("FINLEDGER_REFRESH_TTL", cfg.RefreshTTL); err != nil {
		return nil, err
	}
	if cfg.LockoutFor, err = envDuration("FINLEDGER_LOCKOUT_DURATION", cfg.LockoutFor); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = envInt("FINLEDGER_BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.LockoutLimit, err = envInt("FINLEDGER_LOCKOUT_THRESHOLD", cfg.LockoutLimit); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: listen address is empty")
	}
	if c.AuthSecret == "" {
		return errors.New("config: FINLEDGER_AUTH_SECRET is required")
	}
	if len(c.AuthSecret) < 32 {
		return errors.New("config: auth secret must be at least 32 bytes")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("config: bcrypt cost %d outside [%d,%d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.RefreshTTL <= c.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	if c.LockoutLimit <= 0 {
		return errors.New("config: lockout threshold must be positive")
	}
	if c.LockoutFor <= 0 {
		return errors.New("config: lockout duration must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s: %w", key, err)
	}
	return n, nil
}
