package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/target/creditfeed/internal/core"
	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
	"github.com/target/creditfeed/internal/observability/metrics"
	"github.com/target/creditfeed/internal/ports"
)

const (
	// DefaultRegistrationBonus is credited to every new identity.
	DefaultRegistrationBonus int64 = 100
	// DefaultLoginBonus is credited on every successful login.
	DefaultLoginBonus int64 = 100

	opRegister = "register"
	opLogin    = "login"

	// dummyPassword is verified against when the email is unknown so both failure paths cost one derivation.
	dummyPassword = "creditfeed-dummy-password"
)

// AuthCrypto groups the credential primitives.
type AuthCrypto struct {
	Hasher ports.PasswordHasher
	Tokens ports.TokenService
}

// AuthDeps groups the collaborators AuthService talks to.
type AuthDeps struct {
	Users    core.UserRepository // Required
	Crypto   AuthCrypto          // Required
	Throttle ports.LoginThrottle // Optional: nil disables lockout
}

// AuthPolicy holds the tunable rules of the register/login flow.
type AuthPolicy struct {
	RegistrationBonus     int64
	LoginBonus            int64
	AllowSelfAssignedRole bool
}

// DefaultAuthPolicy returns the policy used when nothing is configured.
func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{
		RegistrationBonus:     DefaultRegistrationBonus,
		LoginBonus:            DefaultLoginBonus,
		AllowSelfAssignedRole: true,
	}
}

// Telemetry holds optional logging and metrics sinks shared by the services.
type Telemetry struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (t Telemetry) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Deps      AuthDeps
	Policy    AuthPolicy
	Telemetry Telemetry
}

// AuthService implements registration, login and token authentication.
type AuthService struct {
	users    core.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	policy   AuthPolicy
	logger   *slog.Logger
	metrics  *metrics.Metrics

	dummyOnce sync.Once
	dummy     domainauth.Credential
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Deps.Users == nil {
		panic("UserRepository is required")
	}
	if opts.Deps.Crypto.Hasher == nil {
		panic("PasswordHasher is required")
	}
	if opts.Deps.Crypto.Tokens == nil {
		panic("TokenService is required")
	}
	policy := opts.Policy
	if policy.RegistrationBonus < 0 {
		policy.RegistrationBonus = 0
	}
	if policy.LoginBonus < 0 {
		policy.LoginBonus = 0
	}
	return &AuthService{
		users:    opts.Deps.Users,
		hasher:   opts.Deps.Crypto.Hasher,
		tokens:   opts.Deps.Crypto.Tokens,
		throttle: opts.Deps.Throttle,
		policy:   policy,
		logger:   opts.Telemetry.logger().With("component", "auth"),
		metrics:  opts.Telemetry.Metrics,
	}
}

// RegisterInput groups the fields of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginInput groups the fields of a login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *model.User
}

// Register creates an identity credited with the registration bonus and returns a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	req, password, err := s.buildCreateRequest(in)
	if err != nil {
		s.metrics.AuthEvent(opRegister, metrics.OutcomeRejected)
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, s.internal(opRegister, fmt.Errorf("check email: %w", err))
	}
	if exists {
		s.metrics.AuthEvent(opRegister, metrics.OutcomeRejected)
		return nil, ErrDuplicateEmail
	}

	cred, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(opRegister, fmt.Errorf("hash password: %w", err))
	}
	req.Credential = cred

	user, err := s.users.Create(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrUserEmailExists) {
			s.metrics.AuthEvent(opRegister, metrics.OutcomeRejected)
			return nil, ErrDuplicateEmail
		}
		return nil, s.internal(opRegister, fmt.Errorf("create user: %w", err))
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, s.internal(opRegister, fmt.Errorf("issue token: %w", err))
	}

	s.metrics.AuthEvent(opRegister, metrics.OutcomeSuccess)
	s.metrics.CreditsGranted(opRegister, user.Credits)
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) buildCreateRequest(in RegisterInput) (*model.CreateUserRequest, string, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, "", apperrors.ValidationField("username", "username is required")
	}
	if err := model.ValidateEmail(in.Email); err != nil {
		return nil, "", apperrors.ValidationField("email", err.Error())
	}
	if strings.TrimSpace(in.Password) == "" {
		return nil, "", apperrors.ValidationField("password", "password is required")
	}

	role := domainauth.RoleUser
	if s.policy.AllowSelfAssignedRole {
		parsed, err := domainauth.ParseRole(in.Role)
		if err != nil {
			return nil, "", apperrors.ValidationField("role", err.Error())
		}
		role = parsed
	}

	req := &model.CreateUserRequest{
		Username: username,
		Email:    model.NormalizeEmail(in.Email),
		Role:     role,
		Credits:  s.policy.RegistrationBonus,
	}
	return req, in.Password, nil
}

// Login verifies the credentials, credits the login bonus atomically and returns a fresh token.
// Every credential failure yields ErrInvalidCredentials so callers cannot probe for emails.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := model.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		s.metrics.AuthEvent(opLogin, metrics.OutcomeRejected)
		return nil, ErrInvalidCredentials
	}

	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, err
	}

	creds, err := s.users.GetCredentialsByEmail(ctx, email)
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		s.hasher.Verify(in.Password, s.dummyCredential())
		return nil, s.rejectLogin(ctx, email)
	case err != nil:
		return nil, s.internal(opLogin, fmt.Errorf("load credentials: %w", err))
	}

	if creds.Credential.Empty() {
		// Derive anyway so a row without credentials answers like a wrong password.
		s.hasher.Verify(in.Password, s.dummyCredential())
		return nil, s.rejectLogin(ctx, email)
	}
	if !s.hasher.Verify(in.Password, creds.Credential) {
		return nil, s.rejectLogin(ctx, email)
	}

	token, err := s.tokens.Issue(creds.ID, creds.Role)
	if err != nil {
		return nil, s.internal(opLogin, fmt.Errorf("issue token: %w", err))
	}

	user := &creds.User
	if s.policy.LoginBonus > 0 {
		user, err = s.users.AddCredits(ctx, creds.ID, s.policy.LoginBonus)
		if err != nil {
			return nil, s.internal(opLogin, fmt.Errorf("add login bonus: %w", err))
		}
	}

	if s.throttle != nil {
		if resetErr := s.throttle.Reset(ctx, email); resetErr != nil {
			s.logger.WarnContext(ctx, "reset login throttle", "error", resetErr)
		}
	}

	s.metrics.AuthEvent(opLogin, metrics.OutcomeSuccess)
	s.metrics.CreditsGranted(opLogin, s.policy.LoginBonus)
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, email string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allowed(ctx, email)
	if err != nil {
		// Fail open: a throttle outage must not lock everyone out.
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		return nil
	}
	if !ok {
		s.metrics.AuthEvent(opLogin, metrics.OutcomeThrottled)
		return ErrTooManyAttempts
	}
	return nil
}

func (s *AuthService) rejectLogin(ctx context.Context, email string) error {
	s.metrics.AuthEvent(opLogin, metrics.OutcomeRejected)
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "record login failure", "error", err)
		}
	}
	return ErrInvalidCredentials
}

func (s *AuthService) dummyCredential() domainauth.Credential {
	s.dummyOnce.Do(func() {
		cred, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Warn("derive dummy credential", "error", err)
			return
		}
		s.dummy = cred
	})
	return s.dummy
}

// Authenticate verifies the token and loads the identity it names.
// It returns ErrInvalidToken for any verification failure and ErrUserNotFound when the
// identity no longer exists.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, s.internal("authenticate", fmt.Errorf("load user: %w", err))
	}
	return user, nil
}

// CreateAdminInput groups the fields for provisioning an administrator.
type CreateAdminInput struct {
	Username string
	Email    string
	Password string
}

// CreateAdmin provisions an identity with the admin role and no starting credits.
// No token is issued; the administrator logs in normally afterwards.
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*model.User, error) {
	if strings.TrimSpace(in.Password) == "" {
		return nil, apperrors.ValidationField("password", "password is required")
	}
	cred, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	req := &model.CreateUserRequest{
		Username:   strings.TrimSpace(in.Username),
		Email:      model.NormalizeEmail(in.Email),
		Role:       domainauth.RoleAdmin,
		Credential: cred,
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	user, err := s.users.Create(ctx, req)
	if err != nil {
		if errors.Is(err, core.ErrUserEmailExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.InfoContext(ctx, "admin created", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) internal(op string, err error) error {
	if op == opRegister || op == opLogin {
		s.metrics.AuthEvent(op, metrics.OutcomeError)
	}
	s.metrics.InternalError(op, err)
	return err
}
