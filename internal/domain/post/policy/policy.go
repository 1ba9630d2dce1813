package policy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vadim/neo-social/internal/domain/post/conflict"
	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
	"github.com/vadim/neo-social/internal/domain/post/recurrence"
	"github.com/vadim/neo-social/internal/domain/post/service"
)

// PublisherResolver finds the adapter for a platform.
// Defined here (consumer) and satisfied by *publisher.Registry.
type PublisherResolver interface {
	Resolve(platform entity.Platform) (publisher.Publisher, bool)
}

const (
	defaultConcurrency     = 4
	defaultPlatformTimeout = 30 * time.Second
	defaultUpcomingLimit   = 5
	dueBatchSize           = 100
)

// Policy orchestrates post use-cases
type Policy struct {
	svc             *service.Service
	publishers      PublisherResolver
	logger          *slog.Logger
	concurrency     int
	platformTimeout time.Duration
	upcomingLimit   int
	now             func() time.Time
}

// Option configures a Policy
type Option func(*Policy)

// WithConcurrency bounds how many platforms are published to at once
func WithConcurrency(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPlatformTimeout bounds each platform call
func WithPlatformTimeout(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.platformTimeout = d
		}
	}
}

// WithUpcomingLimit sets the default size of the upcoming list
func WithUpcomingLimit(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.upcomingLimit = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// New creates a new post policy
func New(svc *service.Service, publishers PublisherResolver, logger *slog.Logger, opts ...Option) *Policy {
	p := &Policy{
		svc:             svc,
		publishers:      publishers,
		logger:          logger,
		concurrency:     defaultConcurrency,
		platformTimeout: defaultPlatformTimeout,
		upcomingLimit:   defaultUpcomingLimit,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ContentInput is the publishable content shared by create and schedule
type ContentInput struct {
	Title     string
	Caption   string
	Hashtags  []string
	ImageURL  string
	Platforms []entity.Platform
}

func (c ContentInput) toService() service.Content {
	return service.Content{
		Title:     c.Title,
		Caption:   c.Caption,
		Hashtags:  c.Hashtags,
		ImageURL:  c.ImageURL,
		Platforms: c.Platforms,
	}
}

// CreatePostInput represents input for creating a post
type CreatePostInput struct {
	AccountID   string
	Content     ContentInput
	ScheduledAt *time.Time
}

// CreatePost creates a draft (or a single scheduled post when ScheduledAt is set)
func (p *Policy) CreatePost(ctx context.Context, in CreatePostInput) (*entity.Post, error) {
	return p.svc.CreatePost(ctx, service.CreateInput{
		AccountID:   in.AccountID,
		Content:     in.Content.toService(),
		ScheduledAt: in.ScheduledAt,
	})
}

// RecurrenceInput describes how a scheduled post repeats
type RecurrenceInput struct {
	Frequency   recurrence.Frequency
	Occurrences int
}

// SchedulePostInput represents input for scheduling one post or a recurring series
type SchedulePostInput struct {
	AccountID   string
	Content     ContentInput
	ScheduledAt time.Time
	Recurrence  *RecurrenceInput // nil schedules a single post
}

// SchedulePost expands the recurrence into independent scheduled posts sharing the same content.
// IDs are returned in date order.
func (p *Policy) SchedulePost(ctx context.Context, in SchedulePostInput) ([]string, error) {
	if in.AccountID == "" {
		return nil, entity.ErrEmptyAccountID
	}
	if in.ScheduledAt.IsZero() {
		return nil, entity.ErrScheduleTimeRequired
	}
	if len(in.Content.Platforms) == 0 {
		return nil, entity.ErrNoPlatforms
	}
	for _, pl := range in.Content.Platforms {
		if _, err := entity.ParsePlatform(string(pl)); err != nil {
			return nil, err
		}
	}

	spec := recurrence.Spec{Anchor: in.ScheduledAt, Frequency: recurrence.FrequencyNone, Occurrences: 1}
	if in.Recurrence != nil {
		spec.Frequency = in.Recurrence.Frequency
		spec.Occurrences = in.Recurrence.Occurrences
	}

	dates, err := spec.Dates()
	if err != nil {
		return nil, err
	}

	posts, err := p.svc.CreateScheduledSeries(ctx, in.AccountID, in.Content.toService(), dates)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(posts))
	for i, post := range posts {
		ids[i] = post.ID
	}

	p.logger.Info("posts scheduled",
		"account_id", in.AccountID,
		"count", len(ids),
		"frequency", string(spec.Frequency),
	)

	return ids, nil
}

// GetPost retrieves a post owned by accountID
func (p *Policy) GetPost(ctx context.Context, accountID, id string) (*entity.Post, error) {
	return p.svc.GetPost(ctx, accountID, id)
}

// UpdatePostInput represents input for updating a post
type UpdatePostInput = service.UpdateInput

// UpdatePost updates an existing post
func (p *Policy) UpdatePost(ctx context.Context, in UpdatePostInput) (*entity.Post, error) {
	return p.svc.UpdatePost(ctx, in)
}

// DeletePost deletes a post and its publish history.
// Content already delivered to platforms stays there.
func (p *Policy) DeletePost(ctx context.Context, accountID, id string) error {
	return p.svc.DeletePost(ctx, accountID, id)
}

// ListPostsInput represents input for listing posts
type ListPostsInput = service.ListInput

// ListPosts retrieves posts by status and scheduled range, ordered by scheduled time
func (p *Policy) ListPosts(ctx context.Context, in ListPostsInput) ([]entity.Post, error) {
	return p.svc.ListPosts(ctx, in)
}

// GetStatistics retrieves post statistics for an account
func (p *Policy) GetStatistics(ctx context.Context, accountID string) (*entity.PostStatistics, error) {
	return p.svc.GetStatistics(ctx, accountID)
}

// ListAttempts returns the publish history of a post, newest first
func (p *Policy) ListAttempts(ctx context.Context, accountID, postID string) ([]entity.PublishAttempt, error) {
	attempts, err := p.svc.ListAttempts(ctx, accountID, postID)
	if errors.Is(err, entity.ErrUnauthorized) {
		return nil, entity.ErrPostNotFound
	}
	return attempts, err
}

// CalendarInput represents input for the month view
type CalendarInput struct {
	AccountID string
	Year      int
	Month     time.Month
	Platform  *entity.Platform // only posts targeting this platform, before conflicts are computed
	Location  *time.Location
}

// CalendarOutput is one month of posts bucketed by day
type CalendarOutput struct {
	Year  int            `json:"year"`
	Month int            `json:"month"`
	Days  []conflict.Day `json:"days"`
}

// Calendar returns every post with a scheduled time in the given month, grouped by day
// with advisory conflict flags
func (p *Policy) Calendar(ctx context.Context, in CalendarInput) (*CalendarOutput, error) {
	if in.Month < time.January || in.Month > time.December {
		return nil, entity.ErrInvalidDateRange
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	from := time.Date(in.Year, in.Month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	posts, err := p.svc.ListPosts(ctx, service.ListInput{
		AccountID: in.AccountID,
		Platform:  in.Platform,
		From:      &from,
		To:        &to,
	})
	if err != nil {
		return nil, err
	}

	return &CalendarOutput{
		Year:  in.Year,
		Month: int(in.Month),
		Days:  conflict.GroupByDay(posts, loc),
	}, nil
}

// UpcomingInput represents input for the upcoming list
type UpcomingInput struct {
	AccountID string
	Limit     int
	Location  *time.Location
}

// UpcomingPost is a scheduled post with its conflict flag
type UpcomingPost struct {
	entity.Post
	HasConflict bool `json:"has_conflict"`
}

// Upcoming returns the next scheduled posts after now in ascending order.
// A post is flagged when another post of the same day shares its time slot.
func (p *Policy) Upcoming(ctx context.Context, in UpcomingInput) ([]UpcomingPost, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = p.upcomingLimit
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	now := p.now()
	scheduled := entity.PostStatusScheduled
	posts, err := p.svc.ListPosts(ctx, service.ListInput{
		AccountID: in.AccountID,
		Status:    &scheduled,
		From:      &now,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []UpcomingPost{}, nil
	}

	// Conflicts are judged against every post on the affected days, not only the listed ones.
	first := startOfDay(*posts[0].ScheduledAt, loc)
	last := startOfDay(*posts[len(posts)-1].ScheduledAt, loc).AddDate(0, 0, 1)
	neighbours, err := p.svc.ListPosts(ctx, service.ListInput{
		AccountID: in.AccountID,
		From:      &first,
		To:        &last,
	})
	if err != nil {
		return nil, err
	}

	conflicting := make(map[string]struct{})
	for _, day := range conflict.GroupByDay(neighbours, loc) {
		for _, slot := range day.ConflictingSlots {
			conflicting[day.Date+" "+slot] = struct{}{}
		}
	}

	out := make([]UpcomingPost, len(posts))
	for i, post := range posts {
		slot, _ := conflict.Slot(post, loc)
		key := post.ScheduledAt.In(loc).Format(time.DateOnly) + " " + slot
		_, flagged := conflicting[key]
		out[i] = UpcomingPost{Post: post, HasConflict: flagged}
	}
	return out, nil
}

// PublishDuePosts publishes every scheduled post whose time has come to its own platforms.
// Failures of individual posts are logged and do not stop the sweep.
func (p *Policy) PublishDuePosts(ctx context.Context) error {
	posts, err := p.svc.ListDuePosts(ctx, dueBatchSize)
	if err != nil {
		return err
	}

	for _, post := range posts {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		report, err := p.PublishPost(ctx, PublishPostInput{AccountID: post.AccountID, PostID: post.ID})
		if err != nil {
			p.logger.Error("failed to publish due post", "post_id", post.ID, "error", err)
			// Malformed posts would be picked up again on every sweep.
			if errors.Is(err, entity.ErrInvalidArgument) {
				if serr := p.svc.SetStatus(ctx, post.ID, entity.PostStatusFailed); serr != nil {
					p.logger.Error("failed to mark due post as failed", "post_id", post.ID, "error", serr)
				}
			}
			continue
		}
		p.logger.Info("due post processed", "post_id", post.ID, "status", string(report.Status))
	}

	return nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
