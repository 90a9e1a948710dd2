package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/data/pgxutil"
	"github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
)

var _ core.UserRepository = (*UserRepo)(nil)

// userColumns is the credential-free projection scanned into model.User.
const userColumns = `id::text AS id, username, email, role, credits, created_at, updated_at`

const (
	userInsertQuery = `
		INSERT INTO users (username, email, role, password_salt, password_hash, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING ` + userColumns
	userExistsByEmailQuery = `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	userGetByIDQuery       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	userGetByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	userCredentialsQuery   = `
		SELECT id::text, username, email, role, credits, created_at, updated_at, password_salt, password_hash
		FROM users WHERE email = $1`
	userListQuery       = `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`
	userAddCreditsQuery = `
		UPDATE users SET credits = credits + $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns
	userSetCreditsQuery = `
		UPDATE users SET credits = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns
	userSetRoleQuery = `
		UPDATE users SET role = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + userColumns
)

// UserRepo provides database operations for identities.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo instance with the given database connection.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom TimeProvider (useful for testing).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Create inserts a new identity. The email is normalized before it is stored.
func (r *UserRepo) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	req.Email = model.NormalizeEmail(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := pgxutil.QueryOne[model.User](ctx, r.DB, userInsertQuery,
		req.Username, req.Email, string(req.Role),
		req.Credential.Salt, req.Credential.Hash, req.Credits,
		r.timeProvider.Now(),
	)
	if err != nil {
		mapped := apperrors.MapDBError(err)
		// users_email_key is the only unique constraint an insert can hit.
		if apperrors.IsConflict(mapped) {
			return nil, ErrUserEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", mapped)
	}
	return &u, nil
}

// ExistsByEmail reports whether an identity with the email is registered.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := r.DB.QueryRowContext(ctx, userExistsByEmailQuery, model.NormalizeEmail(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user email: %w", apperrors.MapDBError(err))
	}
	return exists, nil
}

// GetByID retrieves an identity by id. Malformed ids are reported as not found.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, userGetByIDQuery, "failed to get user by ID", id)
}

// GetByEmail retrieves an identity by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, userGetByEmailQuery, "failed to get user by email", model.NormalizeEmail(email))
}

// GetCredentialsByEmail retrieves an identity together with its stored credential.
// It is the only read that exposes password material.
func (r *UserRepo) GetCredentialsByEmail(ctx context.Context, email string) (*model.UserCredentials, error) {
	var out model.UserCredentials
	var role string
	err := r.DB.QueryRowContext(ctx, userCredentialsQuery, model.NormalizeEmail(email)).Scan(
		&out.ID, &out.Username, &out.Email, &role, &out.Credits, &out.CreatedAt, &out.UpdatedAt,
		&out.Credential.Salt, &out.Credential.Hash,
	)
	if err != nil {
		return nil, userLookupError("failed to get user credentials", err)
	}
	out.Role = auth.Role(role)
	return &out, nil
}

// List returns every identity in registration order.
func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	users, err := pgxutil.QueryAll[model.User](ctx, r.DB, userListQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", apperrors.MapDBError(err))
	}
	return pgxutil.Ptrs(users), nil
}

// AddCredits atomically adds delta to the balance; concurrent calls never lose an update.
func (r *UserRepo) AddCredits(ctx context.Context, id string, delta int64) (*model.User, error) {
	return r.update(ctx, userAddCreditsQuery, "failed to add credits", id, delta)
}

// SetCredits overwrites the balance.
func (r *UserRepo) SetCredits(ctx context.Context, id string, credits int64) (*model.User, error) {
	if credits < 0 {
		return nil, errors.New("credits must be non-negative")
	}
	return r.update(ctx, userSetCreditsQuery, "failed to set credits", id, credits)
}

// SetRole changes the identity's role.
func (r *UserRepo) SetRole(ctx context.Context, id string, role auth.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, errors.New("role must be one of: user, admin")
	}
	return r.update(ctx, userSetRoleQuery, "failed to set role", id, string(role))
}

func (r *UserRepo) update(ctx context.Context, q, errMsg, id string, value any) (*model.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrUserNotFound
	}
	return r.getOne(ctx, q, errMsg, id, value, r.timeProvider.Now())
}

func (r *UserRepo) getOne(ctx context.Context, q, errMsg string, args ...any) (*model.User, error) {
	u, err := pgxutil.QueryOne[model.User](ctx, r.DB, q, args...)
	if err != nil {
		return nil, userLookupError(errMsg, err)
	}
	return &u, nil
}

// userLookupError reports a missing row as ErrUserNotFound and wraps anything else.
func userLookupError(errMsg string, err error) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", errMsg, mapped)
}

// ownerError maps a foreign key violation on a user reference to ErrUserNotFound.
func ownerError(errMsg string, err error) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsForeignKey(mapped) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", errMsg, mapped)
}
