package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/observability/metrics"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth  AuthServiceInterface
	Users UserServiceInterface
	// UnifyGateFailures answers a token whose identity vanished with 401 instead of 404.
	UnifyGateFailures bool
	// Optional: Prometheus collectors; nil disables request metrics and the metrics endpoint.
	Metrics     *metrics.Metrics
	MetricsPath string
	// Optional: dependency checks served on /readyz.
	Readiness map[string]ReadinessCheck
	CORS      CORSConfig
	Logger    *slog.Logger // Logger for request and error logs (optional)
}

// NewRouter creates and configures the HTTP router with the standard middleware chain:
// Recover, Logging, Metrics, CORS, then the mux. Protected routes add the auth and role gates.
func NewRouter(services RouterServices) http.Handler {
	if services.Auth == nil {
		panic("AuthService is required")
	}
	if services.Users == nil {
		panic("UserService is required")
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth}
	userHandlers := &UserHandlers{Svc: services.Users}
	requireAuth := RequireAuth(AuthGateOptions{
		Auth:          services.Auth,
		UnifyFailures: services.UnifyGateFailures,
		Metrics:       services.Metrics,
	})
	requireAdmin := RequireRole(domainauth.RoleAdmin, services.Metrics)

	registerAuthRoutes(mux, authHandlers)
	registerUserRoutes(mux, userHandlers, requireAuth)
	registerAdminRoutes(mux, userHandlers, chain(requireAuth, requireAdmin))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /readyz", readyHandler(services.Readiness))
	if services.Metrics != nil {
		path := services.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, services.Metrics.Handler())
	}

	return chain(
		Recover(services.Logger),
		Logging(services.Logger),
		Metrics(services.Metrics),
		CORS(services.CORS),
	)(mux)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

func registerUserRoutes(mux *http.ServeMux, h *UserHandlers, gate func(http.Handler) http.Handler) {
	mux.Handle("GET /api/user/dashboard", gate(http.HandlerFunc(h.Dashboard)))
	mux.Handle("POST /api/user/save-post", gate(http.HandlerFunc(h.SavePost)))
	mux.Handle("GET /api/user/saved-posts", gate(http.HandlerFunc(h.SavedPosts)))
	mux.Handle("POST /api/user/report-post", gate(http.HandlerFunc(h.ReportPost)))
}

func registerAdminRoutes(mux *http.ServeMux, h *UserHandlers, gate func(http.Handler) http.Handler) {
	mux.Handle("GET /api/user/users", gate(http.HandlerFunc(h.ListUsers)))
	mux.Handle("PUT /api/user/update-credits/{id}", gate(http.HandlerFunc(h.UpdateCredits)))
	mux.Handle("GET /api/user/reports", gate(http.HandlerFunc(h.ListReports)))
}

// chain composes middleware so the first argument is the outermost.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
