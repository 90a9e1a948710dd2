//revive:disable-next-line:var-naming // legacy package name used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxPostIDLen  = 512
	maxReasonLen  = 2000
	maxContentLen = 100_000
)

// SavedPost is a feed item bookmarked by a user.
type SavedPost struct {
	PostID  string    `json:"postId"  db:"post_id"`
	Content string    `json:"content" db:"content"`
	SavedAt time.Time `json:"-"       db:"saved_at"`
}

// SavePostRequest contains fields to bookmark a post.
type SavePostRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

// Validate checks that the post can be saved.
func (r *SavePostRequest) Validate() error {
	if strings.TrimSpace(r.PostID) == "" {
		return errors.New("postId is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.PostID) > maxPostIDLen {
		return errors.New("postId cannot exceed 512 characters")
	}
	if len(r.Content) > maxContentLen {
		return errors.New("content cannot exceed 100000 bytes")
	}
	return nil
}

// Report is a moderation report filed against a post.
type Report struct {
	ID         string    `json:"id"         db:"id"`
	PostID     string    `json:"postId"     db:"post_id"`
	Reason     string    `json:"reason"     db:"reason"`
	ReportedBy string    `json:"reportedBy" db:"reported_by"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// UserReport is the dashboard view of a report filed by the current user.
type UserReport struct {
	PostID     string    `json:"postId"     db:"post_id"`
	Reason     string    `json:"reason"     db:"reason"`
	ReportedAt time.Time `json:"reportedAt" db:"created_at"`
}

// CreateReportRequest contains fields to file a report.
type CreateReportRequest struct {
	PostID string `json:"postId"`
	Reason string `json:"reason"`
}

// ErrReportFieldsRequired is returned when either postId or reason is blank.
var ErrReportFieldsRequired = errors.New("Post ID and reason are required") //nolint:stylecheck,revive // user-facing message

// Validate checks that the report is complete.
func (r *CreateReportRequest) Validate() error {
	if strings.TrimSpace(r.PostID) == "" || strings.TrimSpace(r.Reason) == "" {
		return ErrReportFieldsRequired
	}
	if utf8.RuneCountInString(r.PostID) > maxPostIDLen {
		return errors.New("postId cannot exceed 512 characters")
	}
	if utf8.RuneCountInString(r.Reason) > maxReasonLen {
		return errors.New("reason cannot exceed 2000 characters")
	}
	return nil
}
