// Package daotest provides in-memory post repositories for tests.
package daotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vadim/neo-social/internal/domain/post/dao"
	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// Posts is an in-memory dao.PostRepository. Setting an Err field makes the matching call fail.
type Posts struct {
	mu    sync.Mutex
	items map[string]entity.Post

	CreateErr       error
	GetErr          error
	UpdateErr       error
	UpdateStatusErr error
	ListErr         error
}

var _ dao.PostRepository = (*Posts)(nil)

// NewPosts creates an empty store seeded with the given posts
func NewPosts(seed ...entity.Post) *Posts {
	s := &Posts{items: make(map[string]entity.Post)}
	for _, p := range seed {
		s.items[p.ID] = clonePost(p)
	}
	return s
}

func (s *Posts) Create(_ context.Context, post *entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.items[post.ID] = clonePost(*post)
	return nil
}

func (s *Posts) CreateMany(_ context.Context, posts []*entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	for _, p := range posts {
		s.items[p.ID] = clonePost(*p)
	}
	return nil
}

func (s *Posts) GetByID(_ context.Context, id string) (*entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	p, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	out := clonePost(p)
	return &out, nil
}

func (s *Posts) Update(_ context.Context, post *entity.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.items[post.ID] = clonePost(*post)
	return nil
}

func (s *Posts) UpdateStatus(_ context.Context, id string, status entity.PostStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateStatusErr != nil {
		return s.UpdateStatusErr
	}
	p, ok := s.items[id]
	if !ok {
		return entity.ErrPostNotFound
	}
	p.Status = status
	p.UpdatedAt = updatedAt
	s.items[id] = p
	return nil
}

func (s *Posts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *Posts) List(_ context.Context, filter dao.PostFilter) ([]entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	var out []entity.Post
	for _, p := range s.items {
		if filter.AccountID != "" && p.AccountID != filter.AccountID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Platform != nil && !hasPlatform(p, *filter.Platform) {
			continue
		}
		if filter.From != nil && (p.ScheduledAt == nil || p.ScheduledAt.Before(*filter.From)) {
			continue
		}
		if filter.To != nil && (p.ScheduledAt == nil || !p.ScheduledAt.Before(*filter.To)) {
			continue
		}
		out = append(out, clonePost(p))
	}

	sortByScheduledAt(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Posts) ListDue(_ context.Context, now time.Time, limit int) ([]entity.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	var out []entity.Post
	for _, p := range s.items {
		if p.Status == entity.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, clonePost(p))
		}
	}
	sortByScheduledAt(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Posts) CountByStatus(_ context.Context, accountID string) (map[entity.PostStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[entity.PostStatus]int)
	for _, p := range s.items {
		if p.AccountID == accountID {
			counts[p.Status]++
		}
	}
	return counts, nil
}

// Get returns a stored post without error injection. ok is false if it does not exist.
func (s *Posts) Get(id string) (entity.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	return clonePost(p), ok
}

// Len returns the number of stored posts
func (s *Posts) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Attempts is an in-memory dao.AttemptRepository
type Attempts struct {
	mu    sync.Mutex
	items []entity.PublishAttempt
	posts *Posts

	AppendErr error
	// FailFor makes Append fail only for attempts of the given platform
	FailFor entity.Platform
}

var _ dao.AttemptRepository = (*Attempts)(nil)

// NewAttempts creates an empty attempt log. posts is used to resolve owners for statistics and may be nil.
func NewAttempts(posts *Posts) *Attempts {
	return &Attempts{posts: posts}
}

func (s *Attempts) Append(_ context.Context, a *entity.PublishAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil && (s.FailFor == "" || s.FailFor == a.Platform) {
		return s.AppendErr
	}
	s.items = append(s.items, *a)
	return nil
}

func (s *Attempts) ListByPostID(_ context.Context, postID string) ([]entity.PublishAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.PublishAttempt
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].PostID == postID {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}

func (s *Attempts) CountSuccessByPlatform(_ context.Context, accountID string) (map[entity.Platform]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[entity.Platform]int)
	for _, a := range s.items {
		if !a.Succeeded() {
			continue
		}
		if s.posts != nil {
			p, ok := s.posts.Get(a.PostID)
			if !ok || p.AccountID != accountID {
				continue
			}
		}
		counts[a.Platform]++
	}
	return counts, nil
}

// All returns every stored attempt in insertion order
func (s *Attempts) All() []entity.PublishAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.PublishAttempt(nil), s.items...)
}

func hasPlatform(p entity.Post, platform entity.Platform) bool {
	for _, pl := range p.Platforms {
		if pl == platform {
			return true
		}
	}
	return false
}

func sortByScheduledAt(posts []entity.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].ScheduledAt, posts[j].ScheduledAt
		switch {
		case a == nil && b == nil:
			return posts[i].CreatedAt.Before(posts[j].CreatedAt)
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}

func clonePost(p entity.Post) entity.Post {
	p.Hashtags = append([]string(nil), p.Hashtags...)
	p.Platforms = append([]entity.Platform(nil), p.Platforms...)
	if p.ScheduledAt != nil {
		t := *p.ScheduledAt
		p.ScheduledAt = &t
	}
	return p
}
