package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FailPolicy decides what ValidateRequest does when the revocation store
// is unreachable. The zero value is FailClosed: never silently trade a
// revocation bypass window for availability — that trade must be spelled
// out in configuration.
type FailPolicy int

const (
	// FailClosed rejects the request with ErrStoreUnavailable.
	FailClosed FailPolicy = iota
	// FailOpen skips the revocation check and lets the request through.
	// Every bypass is logged and counted.
	FailOpen
)

// Config is the engine's configuration surface. Zero values fall back to
// the defaults set by DefaultConfig / applyDefaults.
type Config struct {
	Token    TokenConfig
	Throttle ThrottleConfig
	Session  SessionConfig
	Store    StoreConfig
}

// TokenConfig holds signing and lifetime parameters.
type TokenConfig struct {
	Secret     string
	Algorithm  string // "HS256" (default), "HS384", "HS512"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ThrottleConfig holds login-lockout parameters.
type ThrottleConfig struct {
	MaxAttempts   int
	LockoutWindow time.Duration
}

// SessionConfig holds session-registry parameters. TouchCeiling caps how
// far activity touches can extend a session; zero means the access-token
// TTL.
type SessionConfig struct {
	TouchCeiling time.Duration
	ResetTTL     time.Duration // password-reset token lifetime
}

// StoreConfig holds parameters shared by every Redis-backed component.
type StoreConfig struct {
	Prefix               string
	OpTimeout            time.Duration
	RevocationFailPolicy FailPolicy
}

// DefaultConfig returns the defaults the original deployment runs with:
// one-hour access tokens, thirty-day refresh tokens, five attempts per
// fifteen-minute lockout window.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Algorithm:  "HS256",
			AccessTTL:  time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Throttle: ThrottleConfig{
			MaxAttempts:   5,
			LockoutWindow: 15 * time.Minute,
		},
		Session: SessionConfig{
			ResetTTL: time.Hour,
		},
		Store: StoreConfig{
			Prefix:               "auth",
			OpTimeout:            3 * time.Second,
			RevocationFailPolicy: FailClosed,
		},
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Token.Algorithm == "" {
		c.Token.Algorithm = def.Token.Algorithm
	}
	if c.Token.AccessTTL <= 0 {
		c.Token.AccessTTL = def.Token.AccessTTL
	}
	if c.Token.RefreshTTL <= 0 {
		c.Token.RefreshTTL = def.Token.RefreshTTL
	}
	if c.Throttle.MaxAttempts <= 0 {
		c.Throttle.MaxAttempts = def.Throttle.MaxAttempts
	}
	if c.Throttle.LockoutWindow <= 0 {
		c.Throttle.LockoutWindow = def.Throttle.LockoutWindow
	}
	if c.Session.TouchCeiling <= 0 {
		c.Session.TouchCeiling = c.Token.AccessTTL
	}
	if c.Session.ResetTTL <= 0 {
		c.Session.ResetTTL = def.Session.ResetTTL
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = def.Store.Prefix
	}
	if c.Store.OpTimeout <= 0 {
		c.Store.OpTimeout = def.Store.OpTimeout
	}
}

// Validate reports configuration the engine refuses to run with.
func (c *Config) Validate() error {
	if c.Token.Secret == "" {
		return errors.New("token signing secret is required")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh ttl must not be shorter than access ttl")
	}
	if c.Session.TouchCeiling > c.Token.AccessTTL {
		return errors.New("session touch ceiling must not exceed access ttl")
	}
	return nil
}

// LoadDotEnv loads a .env file from the working directory, if present,
// and applies the recognized variables. A missing file is not an error.
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))
	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string { return envMap[key] })
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

// LoadEnv applies recognized environment variables. Empty values leave
// the current setting untouched.
func (c *Config) LoadEnv(getenv func(string) string) error {
	setString := func(o *string) func(string) error {
		return func(value string) error {
			*o = value
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(string) error {
		return func(value string) error {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(string) error {
		return func(value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setPolicy := func(o *FailPolicy) func(string) error {
		return func(value string) error {
			switch value {
			case "closed":
				*o = FailClosed
			case "open":
				*o = FailOpen
			default:
				return fmt.Errorf("unknown revocation fail policy %q", value)
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"AUTH_SECRET_KEY":             setString(&c.Token.Secret),
		"AUTH_SIGNING_ALGORITHM":      setString(&c.Token.Algorithm),
		"AUTH_ACCESS_TTL":             setDuration(&c.Token.AccessTTL),
		"AUTH_REFRESH_TTL":            setDuration(&c.Token.RefreshTTL),
		"AUTH_MAX_LOGIN_ATTEMPTS":     setInt(&c.Throttle.MaxAttempts),
		"AUTH_LOCKOUT_WINDOW":         setDuration(&c.Throttle.LockoutWindow),
		"AUTH_TOUCH_CEILING":          setDuration(&c.Session.TouchCeiling),
		"AUTH_RESET_TTL":              setDuration(&c.Session.ResetTTL),
		"AUTH_STORE_TIMEOUT":          setDuration(&c.Store.OpTimeout),
		"AUTH_REDIS_PREFIX":           setString(&c.Store.Prefix),
		"AUTH_REVOCATION_FAIL_POLICY": setPolicy(&c.Store.RevocationFailPolicy),
	}

	for key, parse := range envMap {
		value := getenv(key)
		if value == "" {
			continue
		}
		if err := parse(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
