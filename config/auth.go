package config

import (
	"strings"
	"time"
)

const (
	defaultTokenTTL         = 7 * 24 * time.Hour
	defaultLoginLockout     = 15 * time.Minute
	defaultPBKDF2Iterations = 1000
)

// AuthConfig groups token, password hashing and credit bonus configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies access tokens. Startup fails without it.
	JWTSecret string        `env:"JWT_SECRET,required,notEmpty,unset"`
	TokenTTL  time.Duration `env:"JWT_TTL"                   envDefault:"168h"`
	Issuer    string        `env:"JWT_ISSUER"`

	PBKDF2Iterations int `env:"AUTH_PBKDF2_ITERATIONS" envDefault:"1000"`

	Bonus BonusConfig

	// AllowSelfAssignedRole accepts the role supplied at registration.
	// When false every new account is a regular user.
	AllowSelfAssignedRole bool `env:"AUTH_ALLOW_SELF_ASSIGNED_ROLE" envDefault:"true"`

	// UnifyGateFailures answers a valid token for a deleted user with 401 instead of 404.
	UnifyGateFailures bool `env:"AUTH_UNIFY_GATE_FAILURES" envDefault:"false"`

	Throttle LoginThrottleConfig
}

// BonusConfig holds the credits granted on registration and on every successful login.
type BonusConfig struct {
	Registration int64 `env:"AUTH_REGISTRATION_BONUS" envDefault:"100"`
	Login        int64 `env:"AUTH_LOGIN_BONUS"        envDefault:"100"`
}

// LoginThrottleConfig controls per-email lockout after repeated failed logins.
// MaxFailures of 0 disables throttling. Throttling needs Redis.
type LoginThrottleConfig struct {
	MaxFailures int           `env:"AUTH_LOGIN_MAX_FAILURES" envDefault:"0"`
	Lockout     time.Duration `env:"AUTH_LOGIN_LOCKOUT"      envDefault:"15m"`
}

// Enabled reports whether failed logins are tracked.
func (c LoginThrottleConfig) Enabled() bool { return c.MaxFailures > 0 }

// Sanitize applies guardrails to auth configuration values.
func (c *AuthConfig) Sanitize() {
	c.Issuer = strings.TrimSpace(c.Issuer)
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.PBKDF2Iterations <= 0 {
		c.PBKDF2Iterations = defaultPBKDF2Iterations
	}
	if c.Bonus.Registration < 0 {
		c.Bonus.Registration = 0
	}
	if c.Bonus.Login < 0 {
		c.Bonus.Login = 0
	}
	if c.Throttle.MaxFailures < 0 {
		c.Throttle.MaxFailures = 0
	}
	if c.Throttle.Lockout <= 0 {
		c.Throttle.Lockout = defaultLoginLockout
	}
}
