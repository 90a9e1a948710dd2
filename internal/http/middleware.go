package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	"github.com/target/creditfeed/internal/observability/metrics"
	"github.com/target/creditfeed/internal/service"
)

// Gate rejection reasons, used as error codes and metric labels.
const (
	reasonNoToken          = "no_token"
	reasonInvalidToken     = "invalid_token"
	reasonUserNotFound     = "user_not_found"
	reasonNotAuthenticated = "not_authenticated"
	reasonInsufficientRole = "insufficient_role"
)

var (
	errNoToken          = errors.New("No token provided, access denied")              //nolint:stylecheck,revive // user-facing message
	errInvalidToken     = errors.New("Invalid or expired token, access denied")       //nolint:stylecheck,revive // user-facing message
	errUserNotFound     = errors.New("User not found")                                //nolint:stylecheck,revive // user-facing message
	errNotAuthenticated = errors.New("Access forbidden: Not authenticated")           //nolint:stylecheck,revive // user-facing message
)

// Logging returns a middleware that logs HTTP requests and responses.
// The logger is also made available to handlers through the request context.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newRespWriter(w)
			next.ServeHTTP(ww, r.WithContext(WithLogger(r.Context(), logger)))
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newRespWriter(w http.ResponseWriter) *respWriter {
	const defaultHTTPStatus = 200
	return &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
}

func (w *respWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel re-panicked by net/http
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					WriteError(w, ErrorParams{
						Code:    http.StatusInternalServerError,
						ErrCode: "internal_error",
						Err:     errServer,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics returns a middleware that records request counts and latency by route pattern.
// It must wrap the mux directly (or through middleware that keeps the same *http.Request)
// so the matched pattern is visible after the mux returns.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := newRespWriter(w)
			next.ServeHTTP(ww, r)
			m.ObserveHTTP(r.Method, r.Pattern, ww.status, time.Since(start))
		})
	}
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins; "*" allows any origin.
	AllowedOrigins []string
}

const (
	corsAllowMethods = "GET, POST, PUT, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
	corsMaxAge       = "600"
)

// CORS returns a middleware that answers preflight requests and sets CORS headers for
// allowed origins. An empty origin list behaves like "*".
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	anyOrigin := len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (anyOrigin || slices.Contains(cfg.AllowedOrigins, origin))
			if allowed {
				h := w.Header()
				if anyOrigin {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					h := w.Header()
					h.Set("Access-Control-Allow-Methods", corsAllowMethods)
					h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
					h.Set("Access-Control-Max-Age", corsMaxAge)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator resolves a bearer token to the identity it names.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthGateOptions configures RequireAuth.
type AuthGateOptions struct {
	Auth Authenticator
	// UnifyFailures reports a vanished identity as the same 401 as a bad token.
	UnifyFailures bool
	Metrics       *metrics.Metrics
}

// RequireAuth returns a middleware that resolves the bearer token to a user and stores it in
// the request context. Missing or unusable tokens get 401; a token whose identity no longer
// exists gets 404 unless UnifyFailures is set.
func RequireAuth(opts AuthGateOptions) func(http.Handler) http.Handler {
	if opts.Auth == nil {
		panic("Authenticator is required")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				opts.Metrics.GateRejection(reasonNoToken)
				WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: reasonNoToken, Err: errNoToken})
				return
			}

			user, err := opts.Auth.Authenticate(r.Context(), token)
			switch {
			case err == nil:
			case errors.Is(err, service.ErrInvalidToken),
				errors.Is(err, service.ErrUserNotFound) && opts.UnifyFailures:
				opts.Metrics.GateRejection(reasonInvalidToken)
				WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: reasonInvalidToken, Err: errInvalidToken})
				return
			case errors.Is(err, service.ErrUserNotFound):
				opts.Metrics.GateRejection(reasonUserNotFound)
				WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: reasonUserNotFound, Err: errUserNotFound})
				return
			default:
				RenderError(w, r, fmt.Errorf("authenticate request: %w", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole returns a middleware that admits only users whose role equals the required role.
// It must run after RequireAuth.
func RequireRole(role domainauth.Role, m *metrics.Metrics) func(http.Handler) http.Handler {
	insufficient := fmt.Errorf("Access forbidden: %s", roleAudience(role)) //nolint:stylecheck,revive // user-facing message
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				m.GateRejection(reasonNotAuthenticated)
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: reasonNotAuthenticated, Err: errNotAuthenticated})
				return
			}
			if user.Role != role {
				m.GateRejection(reasonInsufficientRole)
				WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: reasonInsufficientRole, Err: insufficient})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleAudience(role domainauth.Role) string {
	switch role {
	case domainauth.RoleAdmin:
		return "Admins only"
	case domainauth.RoleUser:
		return "Users only"
	default:
		return string(role) + " only"
	}
}
