package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/creditfeed/internal/core"
	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
	"github.com/target/creditfeed/internal/mocks"
	authmocks "github.com/target/creditfeed/internal/mocks/auth"
	"github.com/target/creditfeed/internal/mocks/memstore"
	"github.com/target/creditfeed/internal/observability/metrics"
)

type authFixture struct {
	svc      *AuthService
	store    *memstore.Store
	hasher   *authmocks.PlainHasher
	tokens   *authmocks.StaticTokenService
	throttle *authmocks.MemoryLoginThrottle
	metrics  *metrics.Metrics
}

func newAuthFixture(t *testing.T, policy AuthPolicy) *authFixture {
	t.Helper()
	f := &authFixture{
		store:    memstore.New(nil),
		hasher:   &authmocks.PlainHasher{},
		tokens:   authmocks.NewStaticTokenService(),
		throttle: authmocks.NewMemoryLoginThrottle(3),
		metrics:  metrics.New(),
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Deps: AuthDeps{
			Users:    f.store.Users(),
			Crypto:   AuthCrypto{Hasher: f.hasher, Tokens: f.tokens},
			Throttle: f.throttle,
		},
		Policy:    policy,
		Telemetry: Telemetry{Metrics: f.metrics},
	})
	return f
}

func (f *authFixture) register(t *testing.T, username, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func TestNewAuthService_RequiredDependencies(t *testing.T) {
	store := memstore.New(nil)
	crypto := AuthCrypto{Hasher: &authmocks.PlainHasher{}, Tokens: authmocks.NewStaticTokenService()}

	assert.Panics(t, func() { NewAuthService(AuthServiceOptions{Deps: AuthDeps{Crypto: crypto}}) })
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{Deps: AuthDeps{Users: store.Users(), Crypto: AuthCrypto{Tokens: crypto.Tokens}}})
	})
	assert.Panics(t, func() {
		NewAuthService(AuthServiceOptions{Deps: AuthDeps{Users: store.Users(), Crypto: AuthCrypto{Hasher: crypto.Hasher}}})
	})
	assert.NotPanics(t, func() { NewAuthService(AuthServiceOptions{Deps: AuthDeps{Users: store.Users(), Crypto: crypto}}) })
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())

	res := f.register(t, "alice", "A@X.com", "pw123")

	assert.Equal(t, "alice", res.User.Username)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.Equal(t, domainauth.RoleUser, res.User.Role)
	assert.Equal(t, int64(100), res.User.Credits)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, domainauth.RoleUser, claims.Role)

	creds, err := f.store.Users().GetCredentialsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "plain:pw123", creds.Credential.Hash)
	assert.NotEmpty(t, creds.Credential.Salt)

	series, err := testutil.GatherAndCount(f.metrics.Registry(), "creditfeed_auth_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestAuthService_Register_Role(t *testing.T) {
	t.Run("self assigned role allowed", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthPolicy())
		res, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "root", Email: "root@x.com", Password: "pw", Role: "admin",
		})
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleAdmin, res.User.Role)
	})

	t.Run("self assigned role ignored", func(t *testing.T) {
		policy := DefaultAuthPolicy()
		policy.AllowSelfAssignedRole = false
		f := newAuthFixture(t, policy)
		res, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "root", Email: "root@x.com", Password: "pw", Role: "admin",
		})
		require.NoError(t, err)
		assert.Equal(t, domainauth.RoleUser, res.User.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		f := newAuthFixture(t, DefaultAuthPolicy())
		_, err := f.svc.Register(context.Background(), RegisterInput{
			Username: "root", Email: "root@x.com", Password: "pw", Role: "owner",
		})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "role", apperrors.GetField(err))
	})
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Username: "  ", Email: "a@x.com", Password: "pw"}, "username"},
		{"missing email", RegisterInput{Username: "a", Password: "pw"}, "email"},
		{"malformed email", RegisterInput{Username: "a", Email: "no-at-sign", Password: "pw"}, "email"},
		{"missing password", RegisterInput{Username: "a", Email: "a@x.com", Password: " "}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, DefaultAuthPolicy())
			_, err := f.svc.Register(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))

			users, listErr := f.store.Users().List(context.Background())
			require.NoError(t, listErr)
			assert.Empty(t, users)
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	first := f.register(t, "alice", "a@x.com", "pw123")

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "mallory", Email: " A@x.COM ", Password: "other"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	users, err := f.store.Users().List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, first.User.ID, users[0].ID)
	assert.Equal(t, "alice", users[0].Username)
}

func TestAuthService_Register_UniqueViolationRace(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	svc := NewAuthService(AuthServiceOptions{Deps: AuthDeps{
		Users:  users,
		Crypto: AuthCrypto{Hasher: &authmocks.PlainHasher{}, Tokens: authmocks.NewStaticTokenService()},
	}})

	users.EXPECT().ExistsByEmail(gomock.Any(), "a@x.com").Return(false, nil)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, core.ErrUserEmailExists)

	_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthService_Register_StorageFailures(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("exists check", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		svc := NewAuthService(AuthServiceOptions{Deps: AuthDeps{
			Users:  users,
			Crypto: AuthCrypto{Hasher: &authmocks.PlainHasher{}, Tokens: authmocks.NewStaticTokenService()},
		}})
		users.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, boom)

		_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("hash failure writes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		users := mocks.NewMockUserRepository(ctrl)
		svc := NewAuthService(AuthServiceOptions{Deps: AuthDeps{
			Users:  users,
			Crypto: AuthCrypto{Hasher: &authmocks.PlainHasher{HashErr: boom}, Tokens: authmocks.NewStaticTokenService()},
		}})
		users.EXPECT().ExistsByEmail(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@x.com", Password: "pw"})
		require.ErrorIs(t, err, boom)
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	reg := f.register(t, "alice", "a@x.com", "pw123")

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "A@X.COM", Password: "pw123"})
	require.NoError(t, err)

	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.Equal(t, int64(200), res.User.Credits)
	assert.NotEqual(t, reg.Token, res.Token)

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)

	stored, err := f.store.Users().GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), stored.Credits)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	reg := f.register(t, "alice", "a@x.com", "pw123")

	tests := []struct {
		name string
		in   LoginInput
	}{
		{"wrong password", LoginInput{Email: "a@x.com", Password: "nope"}},
		{"unknown email", LoginInput{Email: "bob@x.com", Password: "pw123"}},
		{"empty password", LoginInput{Email: "a@x.com"}},
		{"empty email", LoginInput{Password: "pw123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, "Invalid credentials", err.Error())
		})
	}

	stored, err := f.store.Users().GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Credits)
}

func TestAuthService_Login_MissingCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	hasher := &authmocks.PlainHasher{}
	svc := NewAuthService(AuthServiceOptions{
		Deps: AuthDeps{
			Users:  users,
			Crypto: AuthCrypto{Hasher: hasher, Tokens: authmocks.NewStaticTokenService()},
		},
		Policy: DefaultAuthPolicy(),
	})

	users.EXPECT().GetCredentialsByEmail(gomock.Any(), "legacy@x.com").Return(&model.UserCredentials{
		User:       model.User{ID: "u-1", Role: domainauth.RoleUser},
		Credential: domainauth.Credential{Hash: "plain:pw"},
	}, nil)
	users.EXPECT().GetCredentialsByEmail(gomock.Any(), "ghost@x.com").Return(nil, core.ErrUserNotFound)

	_, err := svc.Login(context.Background(), LoginInput{Email: "legacy@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int64(1), hasher.Verifications(), "a row without credentials still runs one derivation")

	_, err = svc.Login(context.Background(), LoginInput{Email: "ghost@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, int64(2), hasher.Verifications(), "unknown email runs one derivation too")
}

func TestAuthService_Login_Throttle(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	f.register(t, "alice", "a@x.com", "pw123")
	ctx := context.Background()

	for range 3 {
		_, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "bad"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Equal(t, 3, f.throttle.Failures("a@x.com"))

	_, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Equal(t, apperrors.ErrCodeRateLimited, apperrors.GetCode(err))

	require.NoError(t, f.throttle.Reset(ctx, "a@x.com"))
	res, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.User.Credits)
}

func TestAuthService_Login_SuccessResetsThrottle(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	f.register(t, "alice", "a@x.com", "pw123")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "bad"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 1, f.throttle.Failures("a@x.com"))

	_, err = f.svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.Zero(t, f.throttle.Failures("a@x.com"))
}

func TestAuthService_Login_ThrottleUnavailableFailsOpen(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	f.register(t, "alice", "a@x.com", "pw123")
	f.throttle.Err = errors.New("redis down")

	res, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, int64(200), res.User.Credits)
}

func TestAuthService_Login_TokenFailureLeavesCreditsUntouched(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	reg := f.register(t, "alice", "a@x.com", "pw123")
	f.tokens.IssueErr = errors.New("signer unavailable")

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw123"})
	require.Error(t, err)

	stored, err := f.store.Users().GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Credits)
}

func TestAuthService_Login_ConcurrentCredits(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	reg := f.register(t, "alice", "a@x.com", "pw123")

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw123"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.store.Users().GetByID(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100+100*n), stored.Credits)
}

func TestAuthService_Login_ZeroBonusSkipsUpdate(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	svc := NewAuthService(AuthServiceOptions{
		Deps: AuthDeps{
			Users:  users,
			Crypto: AuthCrypto{Hasher: &authmocks.PlainHasher{}, Tokens: authmocks.NewStaticTokenService()},
		},
		Policy: AuthPolicy{LoginBonus: 0},
	})

	users.EXPECT().GetCredentialsByEmail(gomock.Any(), "a@x.com").Return(&model.UserCredentials{
		User:       model.User{ID: "u-1", Role: domainauth.RoleUser, Credits: 7},
		Credential: domainauth.Credential{Salt: "s", Hash: "plain:pw"},
	}, nil)

	res, err := svc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.User.Credits)
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	reg := f.register(t, "alice", "a@x.com", "pw123")
	ctx := context.Background()

	user, err := f.svc.Authenticate(ctx, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, user.ID)
	assert.Equal(t, int64(100), user.Credits)

	_, err = f.svc.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.svc.Authenticate(ctx, "forged")
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, authmocks.ErrInvalidToken)

	f.tokens.Put("expired", domainauth.Claims{UserID: reg.User.ID, Role: domainauth.RoleUser, ExpiresAt: time.Now().Add(-time.Minute)})
	_, err = f.svc.Authenticate(ctx, "expired")
	require.ErrorIs(t, err, ErrInvalidToken)

	f.tokens.Put("ghost", domainauth.Claims{UserID: "00000000-0000-0000-0000-000000000000", Role: domainauth.RoleUser})
	_, err = f.svc.Authenticate(ctx, "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_Authenticate_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	tokens := authmocks.NewStaticTokenService()
	svc := NewAuthService(AuthServiceOptions{Deps: AuthDeps{
		Users:  users,
		Crypto: AuthCrypto{Hasher: &authmocks.PlainHasher{}, Tokens: tokens},
	}})
	tokens.Put("tok", domainauth.Claims{UserID: "u-1", Role: domainauth.RoleUser})

	boom := errors.New("db down")
	users.EXPECT().GetByID(gomock.Any(), "u-1").Return(nil, boom)

	_, err := svc.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidToken)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	f := newAuthFixture(t, DefaultAuthPolicy())
	ctx := context.Background()

	admin, err := f.svc.CreateAdmin(ctx, CreateAdminInput{Username: "root", Email: "Root@X.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, admin.Role)
	assert.Equal(t, "root@x.com", admin.Email)
	assert.Zero(t, admin.Credits)

	_, err = f.svc.CreateAdmin(ctx, CreateAdminInput{Username: "root", Email: "root@x.com", Password: "again"})
	require.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.svc.CreateAdmin(ctx, CreateAdminInput{Username: "root", Email: "other@x.com"})
	require.True(t, apperrors.IsValidation(err))

	res, err := f.svc.Login(ctx, LoginInput{Email: "root@x.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, res.User.Role)
}
