package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/target/creditfeed/internal/adapters/jwtauth"
	"github.com/target/creditfeed/internal/adapters/passhash"
	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	"github.com/target/creditfeed/internal/mocks/memstore"
	"github.com/target/creditfeed/internal/observability/metrics"
	"github.com/target/creditfeed/internal/service"
)

// testApp is the full router wired over in-memory repositories and the real crypto adapters.
type testApp struct {
	handler http.Handler
	store   *memstore.Store
	auth    *service.AuthService
	tokens  *jwtauth.Service
	metrics *metrics.Metrics
}

func newTestApp(t *testing.T, configure ...func(*RouterServices)) *testApp {
	t.Helper()
	tokens, err := jwtauth.New(jwtauth.Options{Secret: []byte("test-secret")})
	require.NoError(t, err)

	store := memstore.New(nil)
	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	telemetry := service.Telemetry{Logger: logger, Metrics: m}

	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Deps: service.AuthDeps{
			Users:  store.Users(),
			Crypto: service.AuthCrypto{Hasher: passhash.New(passhash.Options{}), Tokens: tokens},
		},
		Policy:    service.DefaultAuthPolicy(),
		Telemetry: telemetry,
	})
	userSvc := service.NewUserService(service.UserServiceOptions{
		Users:     store.Users(),
		Content:   service.ContentRepos{SavedPosts: store.SavedPosts(), Reports: store.Reports()},
		Telemetry: telemetry,
	})

	services := RouterServices{
		Auth:    authSvc,
		Users:   userSvc,
		Metrics: m,
		Logger:  logger,
	}
	for _, fn := range configure {
		fn(&services)
	}
	return &testApp{
		handler: NewRouter(services),
		store:   store,
		auth:    authSvc,
		tokens:  tokens,
		metrics: m,
	}
}

type testRequest struct {
	method string
	path   string
	body   any
	token  string
}

func (a *testApp) do(t *testing.T, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = http.NoBody
	switch b := tr.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(tr.method, tr.path, body)
	req.Header.Set("Content-Type", "application/json")
	if tr.token != "" {
		req.Header.Set("Authorization", "Bearer "+tr.token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// registerUser registers through the API and returns the token and user id.
func (a *testApp) registerUser(t *testing.T, username, email, password string) (string, string) {
	t.Helper()
	rec := a.do(t, testRequest{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   map[string]string{"username": username, "email": email, "password": password},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	return resp.Token, resp.User.ID
}

// adminToken provisions an admin directly in the store and returns a token for it.
func (a *testApp) adminToken(t *testing.T) string {
	t.Helper()
	admin, err := a.auth.CreateAdmin(context.Background(), service.CreateAdminInput{
		Username: "root", Email: "root@x.com", Password: "root-pw",
	})
	require.NoError(t, err)
	tok, err := a.tokens.Issue(admin.ID, domainauth.RoleAdmin)
	require.NoError(t, err)
	return tok
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rec, &body)
	return body
}

// stubAuthenticator lets gate tests drive Authenticate outcomes directly.
type stubAuthenticator struct {
	user *model.User
	err  error
	got  string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	s.got = token
	return s.user, s.err
}
