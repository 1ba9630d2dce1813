package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vadim/neo-social/internal/domain/post/dao"
	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// Service handles business logic for posts and their publish history
type Service struct {
	posts    dao.PostRepository
	attempts dao.AttemptRepository
	now      func() time.Time
}

// New creates a new post service
func New(posts dao.PostRepository, attempts dao.AttemptRepository) *Service {
	return &Service{
		posts:    posts,
		attempts: attempts,
		now:      time.Now,
	}
}

// Content is the publishable part of a post
type Content struct {
	Title     string
	Caption   string
	Hashtags  []string
	ImageURL  string
	Platforms []entity.Platform
}

// CreateInput represents input for creating a post
type CreateInput struct {
	AccountID   string
	Content     Content
	ScheduledAt *time.Time
}

// CreatePost creates a draft, or a scheduled post when ScheduledAt is set
func (s *Service) CreatePost(ctx context.Context, in CreateInput) (*entity.Post, error) {
	status := entity.PostStatusDraft
	if in.ScheduledAt != nil {
		status = entity.PostStatusScheduled
	}

	post := s.newPost(in.AccountID, in.Content, status, in.ScheduledAt)
	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, &entity.PersistenceError{Op: "create post", Err: err}
	}

	return post, nil
}

// CreateScheduledSeries creates one independent scheduled post per date, all sharing the same content.
// Posts are stored atomically and returned in the order of dates.
func (s *Service) CreateScheduledSeries(ctx context.Context, accountID string, content Content, dates []time.Time) ([]*entity.Post, error) {
	if len(dates) == 0 || len(dates) > entity.MaxOccurrences {
		return nil, entity.ErrInvalidOccurrenceCount
	}

	posts := make([]*entity.Post, len(dates))
	for i := range dates {
		at := dates[i]
		post := s.newPost(accountID, content, entity.PostStatusScheduled, &at)
		if err := post.Validate(); err != nil {
			return nil, err
		}
		posts[i] = post
	}

	if err := s.posts.CreateMany(ctx, posts); err != nil {
		return nil, &entity.PersistenceError{Op: "create scheduled posts", Err: err}
	}

	return posts, nil
}

func (s *Service) newPost(accountID string, c Content, status entity.PostStatus, scheduledAt *time.Time) *entity.Post {
	now := s.now()
	return &entity.Post{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Title:       c.Title,
		Caption:     c.Caption,
		Hashtags:    entity.NormalizeHashtags(c.Hashtags),
		ImageURL:    c.ImageURL,
		Platforms:   entity.UniquePlatforms(c.Platforms),
		Status:      status,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// GetPost retrieves a post owned by accountID
func (s *Service) GetPost(ctx context.Context, accountID, id string) (*entity.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "get post", Err: err}
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	if !post.IsOwnedBy(accountID) {
		return nil, entity.ErrPostNotOwned
	}
	return post, nil
}

// UpdateInput represents input for updating a post. Nil fields are left unchanged.
type UpdateInput struct {
	AccountID     string
	ID            string
	Title         *string
	Caption       *string
	Hashtags      *[]string
	ImageURL      *string
	Platforms     *[]entity.Platform
	ScheduledAt   *time.Time
	ClearSchedule bool // clears scheduled_at and moves the post back to draft
}

// UpdatePost updates an existing post
func (s *Service) UpdatePost(ctx context.Context, in UpdateInput) (*entity.Post, error) {
	post, err := s.GetPost(ctx, in.AccountID, in.ID)
	if err != nil {
		return nil, err
	}

	if !post.IsEditable() {
		return nil, entity.ErrPostNotEditable
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Caption != nil {
		post.Caption = *in.Caption
	}
	if in.Hashtags != nil {
		post.Hashtags = entity.NormalizeHashtags(*in.Hashtags)
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}
	if in.Platforms != nil {
		post.Platforms = entity.UniquePlatforms(*in.Platforms)
	}

	if in.ClearSchedule {
		post.ScheduledAt = nil
		post.Status = entity.PostStatusDraft
	} else if in.ScheduledAt != nil {
		post.ScheduledAt = in.ScheduledAt
		post.Status = entity.PostStatusScheduled
	}

	post.UpdatedAt = s.now()

	if err := post.Validate(); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, &entity.PersistenceError{Op: "update post", Err: err}
	}

	return post, nil
}

// DeletePost deletes a post together with its publish history
func (s *Service) DeletePost(ctx context.Context, accountID, id string) error {
	if _, err := s.GetPost(ctx, accountID, id); err != nil {
		return err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		return &entity.PersistenceError{Op: "delete post", Err: err}
	}
	return nil
}

// ListInput represents input for listing posts
type ListInput struct {
	AccountID string
	Status    *entity.PostStatus
	Platform  *entity.Platform
	From      *time.Time
	To        *time.Time
	Limit     int
}

// ListPosts retrieves an account's posts ordered by scheduled time
func (s *Service) ListPosts(ctx context.Context, in ListInput) ([]entity.Post, error) {
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return nil, entity.ErrInvalidDateRange
	}

	posts, err := s.posts.List(ctx, dao.PostFilter{
		AccountID: in.AccountID,
		Status:    in.Status,
		Platform:  in.Platform,
		From:      in.From,
		To:        in.To,
		Limit:     in.Limit,
	})
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list posts", Err: err}
	}
	return posts, nil
}

// ListDuePosts retrieves scheduled posts of every account whose time has come
func (s *Service) ListDuePosts(ctx context.Context, limit int) ([]entity.Post, error) {
	posts, err := s.posts.ListDue(ctx, s.now(), limit)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list due posts", Err: err}
	}
	return posts, nil
}

// SetStatus overwrites the post status and bumps updated_at
func (s *Service) SetStatus(ctx context.Context, id string, status entity.PostStatus) error {
	if err := s.posts.UpdateStatus(ctx, id, status, s.now()); err != nil {
		return &entity.PersistenceError{Op: "update post status", Err: err}
	}
	return nil
}

// RecordAttempt appends an attempt to the audit log, assigning its ID and creation time
func (s *Service) RecordAttempt(ctx context.Context, attempt *entity.PublishAttempt) error {
	attempt.ID = uuid.New().String()
	attempt.CreatedAt = s.now()

	if err := s.attempts.Append(ctx, attempt); err != nil {
		return &entity.PersistenceError{Op: "append publish attempt", Err: err}
	}
	return nil
}

// ListAttempts retrieves the publish history of a post owned by accountID, newest first
func (s *Service) ListAttempts(ctx context.Context, accountID, postID string) ([]entity.PublishAttempt, error) {
	if _, err := s.GetPost(ctx, accountID, postID); err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListByPostID(ctx, postID)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "list publish attempts", Err: err}
	}
	if attempts == nil {
		attempts = []entity.PublishAttempt{}
	}
	return attempts, nil
}

// GetStatistics aggregates post counts per status and successful publishes per platform
func (s *Service) GetStatistics(ctx context.Context, accountID string) (*entity.PostStatistics, error) {
	counts, err := s.posts.CountByStatus(ctx, accountID)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "count posts", Err: err}
	}

	byPlatform, err := s.attempts.CountSuccessByPlatform(ctx, accountID)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "count publish attempts", Err: err}
	}

	stats := &entity.PostStatistics{ByPlatform: byPlatform}
	for status, n := range counts {
		stats.Add(status, n)
	}
	return stats, nil
}
