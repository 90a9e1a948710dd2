package core

import (
	"context"

	"github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// UserRepository defines the interface for identity data operations.
// Every read except GetCredentialsByEmail returns the credential-free model.User projection.
type UserRepository interface {
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*model.UserCredentials, error)
	List(ctx context.Context) ([]*model.User, error)
	// AddCredits atomically increments credits and returns the updated user.
	AddCredits(ctx context.Context, id string, delta int64) (*model.User, error)
	SetCredits(ctx context.Context, id string, credits int64) (*model.User, error)
	SetRole(ctx context.Context, id string, role auth.Role) (*model.User, error)
}

// SavedPostRepository defines the interface for bookmarked posts.
type SavedPostRepository interface {
	// Save stores the post for the user; saving an already saved post is a no-op.
	Save(ctx context.Context, userID string, req model.SavePostRequest) error
	ListByUser(ctx context.Context, userID string) ([]model.SavedPost, error)
}

// ReportRepository defines the interface for moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, reportedBy string, req model.CreateReportRequest) (*model.Report, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserReport, error)
	// List returns all reports, newest first.
	List(ctx context.Context) ([]*model.Report, error)
}
