package dao

import (
	"context"
	"fmt"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// AttemptPostgres implements AttemptRepository for PostgreSQL
type AttemptPostgres struct {
	pool DB
}

// NewAttemptPostgres creates a new PostgreSQL attempt repository
func NewAttemptPostgres(pool DB) *AttemptPostgres {
	return &AttemptPostgres{pool: pool}
}

// Append inserts a publish attempt
func (r *AttemptPostgres) Append(ctx context.Context, a *entity.PublishAttempt) error {
	query := `
		INSERT INTO publish_attempts (id, post_id, platform, outcome, platform_post_id,
		                              error_message, published_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.PostID,
		a.Platform,
		a.Outcome,
		nullable(a.PlatformPostID),
		nullable(a.ErrorMessage),
		a.PublishedAt,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting publish attempt: %w", err)
	}
	return nil
}

// ListByPostID retrieves the attempts of a post, newest first
func (r *AttemptPostgres) ListByPostID(ctx context.Context, postID string) ([]entity.PublishAttempt, error) {
	query := `
		SELECT id, post_id, platform, outcome, platform_post_id, error_message, published_at, created_at
		FROM publish_attempts
		WHERE post_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("querying publish attempts: %w", err)
	}
	defer rows.Close()

	var attempts []entity.PublishAttempt
	for rows.Next() {
		var a entity.PublishAttempt
		var platformPostID, errorMessage *string

		err := rows.Scan(
			&a.ID,
			&a.PostID,
			&a.Platform,
			&a.Outcome,
			&platformPostID,
			&errorMessage,
			&a.PublishedAt,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if platformPostID != nil {
			a.PlatformPostID = *platformPostID
		}
		if errorMessage != nil {
			a.ErrorMessage = *errorMessage
		}

		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating publish attempts: %w", err)
	}

	return attempts, nil
}

// CountSuccessByPlatform counts successful attempts per platform for an account
func (r *AttemptPostgres) CountSuccessByPlatform(ctx context.Context, accountID string) (map[entity.Platform]int, error) {
	query := `
		SELECT a.platform, COUNT(*)
		FROM publish_attempts a
		JOIN posts p ON p.id = a.post_id
		WHERE p.account_id = $1 AND a.outcome = 'success'
		GROUP BY a.platform
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("counting publish attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.Platform]int)
	for rows.Next() {
		var platform entity.Platform
		var n int
		if err := rows.Scan(&platform, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[platform] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}
