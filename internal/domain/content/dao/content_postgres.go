package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/neo-social/internal/domain/content/entity"
)

// ContentPostgres stores generated text and images in PostgreSQL
type ContentPostgres struct {
	pool *pgxpool.Pool
}

// NewContentPostgres creates a new PostgreSQL content repository
func NewContentPostgres(pool *pgxpool.Pool) *ContentPostgres {
	return &ContentPostgres{pool: pool}
}

// SaveText inserts a generated text. ID and CreatedAt must be set by the caller.
func (r *ContentPostgres) SaveText(ctx context.Context, c *entity.GeneratedContent) error {
	query := `
		INSERT INTO generated_content (id, account_id, prompt, content_type, platform, content, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.AccountID,
		c.Prompt,
		c.ContentType,
		c.Platform,
		c.Text,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting generated content: %w", err)
	}
	return nil
}

// SaveImage inserts a generated image record
func (r *ContentPostgres) SaveImage(ctx context.Context, img *entity.GeneratedImage) error {
	query := `
		INSERT INTO generated_images (id, account_id, prompt, image_url, storage_key, size, quality, style, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		img.ID,
		img.AccountID,
		img.RevisedPrompt,
		img.ImageURL,
		img.StorageKey,
		img.Size,
		img.Quality,
		img.Style,
		img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting generated image: %w", err)
	}
	return nil
}

// ListTexts returns an account's most recent generated texts, newest first
func (r *ContentPostgres) ListTexts(ctx context.Context, accountID string, limit int) ([]entity.GeneratedContent, error) {
	query := `
		SELECT id, account_id, prompt, content_type, COALESCE(platform, ''), content, created_at
		FROM generated_content
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying generated content: %w", err)
	}
	defer rows.Close()

	var items []entity.GeneratedContent
	for rows.Next() {
		var c entity.GeneratedContent
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Prompt, &c.ContentType, &c.Platform, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generated content: %w", err)
	}

	return items, nil
}
