package dao

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// DB is the part of *pgxpool.Pool the PostgreSQL repositories use
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostFilter contains filters for listing posts
type PostFilter struct {
	AccountID string
	Status    *entity.PostStatus
	Platform  *entity.Platform
	From      *time.Time // inclusive, applied to scheduled_at
	To        *time.Time // exclusive, applied to scheduled_at
	Limit     int
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Create inserts a new post
	Create(ctx context.Context, post *entity.Post) error

	// CreateMany inserts all posts in one transaction
	CreateMany(ctx context.Context, posts []*entity.Post) error

	// GetByID retrieves a post by its ID. Returns nil, nil when the post does not exist
	// or the ID is not a valid UUID.
	GetByID(ctx context.Context, id string) (*entity.Post, error)

	// Update overwrites the editable fields of a post
	Update(ctx context.Context, post *entity.Post) error

	// UpdateStatus updates only the status and updated_at
	UpdateStatus(ctx context.Context, id string, status entity.PostStatus, updatedAt time.Time) error

	// Delete removes a post by ID
	Delete(ctx context.Context, id string) error

	// List retrieves posts matching the filter ordered by scheduled_at ascending.
	// Posts without a scheduled time come last.
	List(ctx context.Context, filter PostFilter) ([]entity.Post, error)

	// ListDue retrieves scheduled posts with scheduled_at <= now
	ListDue(ctx context.Context, now time.Time, limit int) ([]entity.Post, error)

	// CountByStatus returns the number of posts per status for an account
	CountByStatus(ctx context.Context, accountID string) (map[entity.PostStatus]int, error)
}

// AttemptRepository defines the interface for the append-only publish audit log
type AttemptRepository interface {
	// Append inserts a new attempt. Attempts are never updated.
	Append(ctx context.Context, attempt *entity.PublishAttempt) error

	// ListByPostID retrieves all attempts of a post, newest first
	ListByPostID(ctx context.Context, postID string) ([]entity.PublishAttempt, error)

	// CountSuccessByPlatform returns successful attempts per platform across an account's posts
	CountSuccessByPlatform(ctx context.Context, accountID string) (map[entity.Platform]int, error)
}
