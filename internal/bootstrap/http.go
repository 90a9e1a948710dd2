package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/target/creditfeed/config"
	httpx "github.com/target/creditfeed/internal/http"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config    *config.AppConfig
	Services  ServiceContainer
	Readiness map[string]httpx.ReadinessCheck
	Logger    *slog.Logger
	// ErrCh receives the listener error if the server stops unexpectedly (optional).
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	handler := buildHTTPHandler(cfg, appCfg, logger)
	return startServer(serverParams{
		Logger:  logger,
		Handler: handler,
		HTTP:    appCfg.HTTP,
	}, cfg.ErrCh)
}

func buildHTTPHandler(cfg *HTTPServerConfig, appCfg *config.AppConfig, logger *slog.Logger) http.Handler {
	return httpx.NewRouter(httpx.RouterServices{
		Auth:              cfg.Services.Auth,
		Users:             cfg.Services.Users,
		UnifyGateFailures: appCfg.Auth.UnifyGateFailures,
		Metrics:           cfg.Services.Metrics,
		MetricsPath:       appCfg.Observability.Metrics.Path,
		Readiness:         cfg.Readiness,
		CORS:              httpx.CORSConfig{AllowedOrigins: appCfg.HTTP.CORSAllowedOrigins},
		Logger:            logger,
	})
}

type serverParams struct {
	Logger  *slog.Logger
	Handler http.Handler
	HTTP    config.HTTPConfig
}

func newServer(p serverParams) *http.Server {
	addr := p.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":5000"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           p.Handler,
		ReadTimeout:       p.HTTP.Timeouts.Read,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      p.HTTP.Timeouts.Write,
		IdleTimeout:       120 * time.Second,
	}
}

func startServer(p serverParams, errCh chan<- error) *http.Server {
	server := newServer(p)

	go func() {
		p.Logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.Logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server, waiting at most Timeout for
// in-flight requests.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	parent := cfg.Context
	if parent == nil {
		parent = context.Background()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
