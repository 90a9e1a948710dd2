package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/creditfeed/config"
	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/data"
	"github.com/target/creditfeed/internal/observability/metrics"
	"github.com/target/creditfeed/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth    *service.AuthService
	Users   *service.UserService
	Metrics *metrics.Metrics
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Users      core.UserRepository
	SavedPosts core.SavedPostRepository
	Reports    core.ReportRepository
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB) serviceRepositories {
	return serviceRepositories{
		Users:      data.NewUserRepo(db),
		SavedPosts: data.NewSavedPostRepo(db),
		Reports:    data.NewReportRepo(db),
	}
}

// NewServices builds the Postgres-backed service container.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	return buildDomainServices(domainServicesOptions{
		Config: deps.Config,
		Repos:  buildRepositories(deps.DB),
		Infra:  serviceInfra{Redis: deps.RedisClient, Logger: deps.Logger},
	})
}

type serviceInfra struct {
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

type domainServicesOptions struct {
	Config *config.AppConfig
	Repos  serviceRepositories
	Infra  serviceInfra
}

func buildDomainServices(opts domainServicesOptions) (ServiceContainer, error) {
	logger := opts.Infra.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if opts.Config.Observability.Metrics.IsEnabled() {
		m = metrics.New()
	}
	telemetry := newTelemetry(logger, m)

	auth, err := BuildAuthService(AuthConfig{
		Auth:  opts.Config.Auth,
		Users: opts.Repos.Users,
		Infra: AuthInfra{
			RedisClient: opts.Infra.Redis,
			KeyPrefix:   opts.Config.Redis.KeyPrefix,
			Telemetry:   telemetry,
		},
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	users := service.NewUserService(service.UserServiceOptions{
		Users: opts.Repos.Users,
		Content: service.ContentRepos{
			SavedPosts: opts.Repos.SavedPosts,
			Reports:    opts.Repos.Reports,
		},
		Telemetry: telemetry,
	})

	return ServiceContainer{Auth: auth, Users: users, Metrics: m}, nil
}

// ServiceOrchestrationConfig contains everything needed to run the HTTP service until shutdown.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// RunServicesWithShutdown starts the HTTP server and blocks until ctx is cancelled, a
// shutdown signal arrives, or the server fails.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:    cfg.Config,
		Services:  cfg.Services,
		Readiness: ReadinessChecks(cfg.DB, cfg.RedisClient),
		Logger:    logger,
		ErrCh:     errCh,
	})

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return waitForShutdown(sigCtx, shutdownConfig{
		errCh:      errCh,
		httpServer: server,
		timeout:    cfg.Config.HTTP.Timeouts.Shutdown,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	errCh      <-chan error
	httpServer *http.Server
	timeout    time.Duration
	logger     *slog.Logger
}

// waitForShutdown waits for ctx to end or for a server error, then drains the server.
func waitForShutdown(ctx context.Context, cfg shutdownConfig) error {
	select {
	case <-ctx.Done():
		cfg.logger.Info("shutting down services...")
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return fmt.Errorf("http server: %w", err)
	}
}

// gracefulStop attempts to gracefully stop the HTTP server.
func gracefulStop(cfg shutdownConfig) error {
	return ShutdownHTTPServer(ShutdownConfig{
		Context: context.Background(),
		Server:  cfg.httpServer,
		Timeout: cfg.timeout,
		Logger:  cfg.logger,
	})
}
