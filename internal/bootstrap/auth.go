package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/creditfeed/config"
	"github.com/target/creditfeed/internal/adapters/jwtauth"
	"github.com/target/creditfeed/internal/adapters/passhash"
	redisadapter "github.com/target/creditfeed/internal/adapters/redis"
	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/observability/metrics"
	"github.com/target/creditfeed/internal/ports"
	"github.com/target/creditfeed/internal/service"
)

// AuthConfig contains configuration for the auth service.
type AuthConfig struct {
	Auth  config.AuthConfig
	Users core.UserRepository
	Infra AuthInfra
}

// AuthInfra groups the optional runtime dependencies of the auth service.
type AuthInfra struct {
	RedisClient redis.UniversalClient
	KeyPrefix   string
	Telemetry   service.Telemetry
}

// BuildAuthService wires the password hasher, token service and login throttle into an
// AuthService. A missing signing secret is an error; a throttle without Redis is disabled
// with a warning.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Users == nil {
		return nil, errors.New("user repository is required")
	}
	tokens, err := jwtauth.New(jwtauth.Options{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("build token service: %w", err)
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Deps: service.AuthDeps{
			Users: cfg.Users,
			Crypto: service.AuthCrypto{
				Hasher: passhash.New(passhash.Options{Iterations: cfg.Auth.PBKDF2Iterations}),
				Tokens: tokens,
			},
			Throttle: buildLoginThrottle(cfg),
		},
		Policy: service.AuthPolicy{
			RegistrationBonus:     cfg.Auth.Bonus.Registration,
			LoginBonus:            cfg.Auth.Bonus.Login,
			AllowSelfAssignedRole: cfg.Auth.AllowSelfAssignedRole,
		},
		Telemetry: cfg.Infra.Telemetry,
	}), nil
}

//nolint:ireturn // nil interface disables throttling in the auth service.
func buildLoginThrottle(cfg AuthConfig) ports.LoginThrottle {
	if !cfg.Auth.Throttle.Enabled() {
		return nil
	}
	logger := cfg.Infra.Telemetry.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Infra.RedisClient == nil {
		logger.Warn("login throttle disabled: redis client not configured",
			"max_failures", cfg.Auth.Throttle.MaxFailures)
		return nil
	}
	logger.Info("login throttle enabled",
		"max_failures", cfg.Auth.Throttle.MaxFailures,
		"lockout", cfg.Auth.Throttle.Lockout)
	return redisadapter.NewLoginThrottle(cfg.Infra.RedisClient, redisadapter.LoginThrottleOptions{
		MaxFailures: cfg.Auth.Throttle.MaxFailures,
		Lockout:     cfg.Auth.Throttle.Lockout,
		Prefix:      cfg.Infra.KeyPrefix + "login_failures:",
	})
}

// newTelemetry bundles the logger and optional metrics handed to services.
func newTelemetry(logger *slog.Logger, m *metrics.Metrics) service.Telemetry {
	return service.Telemetry{Logger: logger, Metrics: m}
}
