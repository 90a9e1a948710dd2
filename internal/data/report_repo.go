package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/target/creditfeed/internal/core"
	"github.com/target/creditfeed/internal/data/pgxutil"
	"github.com/target/creditfeed/internal/domain/model"
	apperrors "github.com/target/creditfeed/internal/errors"
)

var _ core.ReportRepository = (*ReportRepo)(nil)

const reportColumns = `id::text AS id, post_id, reason, reported_by::text AS reported_by, created_at, updated_at`

const (
	reportInsertQuery = `
		INSERT INTO reports (post_id, reason, reported_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + reportColumns
	reportListByUserQuery = `
		SELECT post_id, reason, created_at
		FROM reports
		WHERE reported_by = $1
		ORDER BY created_at ASC, id ASC`
	reportListQuery = `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id DESC`
)

// ReportRepo stores moderation reports.
type ReportRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewReportRepo creates a new ReportRepo.
func NewReportRepo(db *sql.DB) *ReportRepo {
	return &ReportRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewReportRepoWithTimeProvider creates a ReportRepo with a custom TimeProvider.
func NewReportRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ReportRepo {
	return &ReportRepo{DB: db, timeProvider: tp}
}

// Create files a report against a post on behalf of reportedBy.
func (r *ReportRepo) Create(
	ctx context.Context,
	reportedBy string,
	req model.CreateReportRequest,
) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if uuid.Validate(reportedBy) != nil {
		return nil, ErrUserNotFound
	}

	rep, err := pgxutil.QueryOne[model.Report](ctx, r.DB, reportInsertQuery,
		req.PostID, req.Reason, reportedBy, r.timeProvider.Now())
	if err != nil {
		return nil, ownerError("failed to create report", err)
	}
	return &rep, nil
}

// ListByUser returns the reports a user filed, oldest first.
func (r *ReportRepo) ListByUser(ctx context.Context, userID string) ([]model.UserReport, error) {
	if uuid.Validate(userID) != nil {
		return []model.UserReport{}, nil
	}
	reports, err := pgxutil.QueryAll[model.UserReport](ctx, r.DB, reportListByUserQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user reports: %w", apperrors.MapDBError(err))
	}
	return reports, nil
}

// List returns every report, newest first.
func (r *ReportRepo) List(ctx context.Context) ([]*model.Report, error) {
	reports, err := pgxutil.QueryAll[model.Report](ctx, r.DB, reportListQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", apperrors.MapDBError(err))
	}
	return pgxutil.Ptrs(reports), nil
}
