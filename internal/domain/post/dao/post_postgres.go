package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

const postColumns = `id, account_id, title, caption, hashtags, image_url, platforms,
		       status, scheduled_at, created_at, updated_at`

// invalidTextRepresentation is raised when an ID cannot be cast to uuid
const invalidTextRepresentation = "22P02"

// PostPostgres implements PostRepository for PostgreSQL
type PostPostgres struct {
	pool DB
}

// NewPostPostgres creates a new PostgreSQL post repository
func NewPostPostgres(pool DB) *PostPostgres {
	return &PostPostgres{pool: pool}
}

const insertPostQuery = `
	INSERT INTO posts (id, account_id, title, caption, hashtags, image_url, platforms,
	                   status, scheduled_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func insertArgs(p *entity.Post) []any {
	return []any{
		p.ID,
		p.AccountID,
		nullable(p.Title),
		p.Caption,
		nonNil(p.Hashtags),
		nullable(p.ImageURL),
		platformsToStrings(p.Platforms),
		p.Status,
		p.ScheduledAt,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

// Create inserts a new post
func (r *PostPostgres) Create(ctx context.Context, post *entity.Post) error {
	if _, err := r.pool.Exec(ctx, insertPostQuery, insertArgs(post)...); err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// CreateMany inserts a batch of posts atomically
func (r *PostPostgres) CreateMany(ctx context.Context, posts []*entity.Post) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, p := range posts {
		batch.Queue(insertPostQuery, insertArgs(p)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting posts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing posts: %w", err)
	}
	return nil
}

// GetByID retrieves a post by ID
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}
	return post, nil
}

// Update updates the editable fields of a post
func (r *PostPostgres) Update(ctx context.Context, post *entity.Post) error {
	query := `
		UPDATE posts
		SET title = $2, caption = $3, hashtags = $4, image_url = $5, platforms = $6,
		    status = $7, scheduled_at = $8, updated_at = $9
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		post.ID,
		nullable(post.Title),
		post.Caption,
		nonNil(post.Hashtags),
		nullable(post.ImageURL),
		platformsToStrings(post.Platforms),
		post.Status,
		post.ScheduledAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating post: %w", err)
	}
	return nil
}

// UpdateStatus updates only the status
func (r *PostPostgres) UpdateStatus(ctx context.Context, id string, status entity.PostStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET status = $2, updated_at = $3 WHERE id = $1`, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("updating post status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}
	return nil
}

// Delete removes a post. Its attempts are removed by the foreign key cascade.
func (r *PostPostgres) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM posts WHERE id = $1", id); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// List retrieves posts with filtering
func (r *PostPostgres) List(ctx context.Context, filter PostFilter) ([]entity.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	args := []any{}
	argNum := 1

	if filter.AccountID != "" {
		query += fmt.Sprintf(" AND account_id = $%d", argNum)
		args = append(args, filter.AccountID)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Platform != nil {
		query += fmt.Sprintf(" AND $%d = ANY(platforms)", argNum)
		args = append(args, string(*filter.Platform))
		argNum++
	}
	if filter.From != nil {
		query += fmt.Sprintf(" AND scheduled_at >= $%d", argNum)
		args = append(args, *filter.From)
		argNum++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND scheduled_at < $%d", argNum)
		args = append(args, *filter.To)
		argNum++
	}

	query += " ORDER BY scheduled_at ASC NULLS LAST, created_at ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	return r.queryPosts(ctx, query, args...)
}

// ListDue retrieves scheduled posts that are due for publishing
func (r *PostPostgres) ListDue(ctx context.Context, now time.Time, limit int) ([]entity.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = 'scheduled' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC
		LIMIT $2`

	return r.queryPosts(ctx, query, now, limit)
}

// CountByStatus counts posts per status
func (r *PostPostgres) CountByStatus(ctx context.Context, accountID string) (map[entity.PostStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM posts WHERE account_id = $1 GROUP BY status`, accountID)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.PostStatus]int)
	for rows.Next() {
		var status entity.PostStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}

	return counts, nil
}

func (r *PostPostgres) queryPosts(ctx context.Context, query string, args ...any) ([]entity.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []entity.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}

	return posts, nil
}

func scanPost(row pgx.Row) (*entity.Post, error) {
	var p entity.Post
	var title, imageURL *string
	var platforms []string

	err := row.Scan(
		&p.ID,
		&p.AccountID,
		&title,
		&p.Caption,
		&p.Hashtags,
		&imageURL,
		&platforms,
		&p.Status,
		&p.ScheduledAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if title != nil {
		p.Title = *title
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	p.Platforms = make([]entity.Platform, len(platforms))
	for i, s := range platforms {
		p.Platforms[i] = entity.Platform(s)
	}

	return &p, nil
}

// isMalformedID reports whether postgres rejected an ID that is not a uuid.
// Such a post cannot exist, so it is treated as missing.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

func platformsToStrings(platforms []entity.Platform) []string {
	out := make([]string, len(platforms))
	for i, p := range platforms {
		out[i] = string(p)
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
