package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/policy"
	"github.com/vadim/neo-social/internal/domain/post/recurrence"
	"github.com/vadim/neo-social/internal/httpx/response"
)

// PostPolicy defines the interface for post operations
// Interface is defined by consumer (handler), not provider (policy)
type PostPolicy interface {
	CreatePost(ctx context.Context, in policy.CreatePostInput) (*entity.Post, error)
	SchedulePost(ctx context.Context, in policy.SchedulePostInput) ([]string, error)
	GetPost(ctx context.Context, accountID, id string) (*entity.Post, error)
	UpdatePost(ctx context.Context, in policy.UpdatePostInput) (*entity.Post, error)
	DeletePost(ctx context.Context, accountID, id string) error
	ListPosts(ctx context.Context, in policy.ListPostsInput) ([]entity.Post, error)
	GetStatistics(ctx context.Context, accountID string) (*entity.PostStatistics, error)
	ListAttempts(ctx context.Context, accountID, postID string) ([]entity.PublishAttempt, error)
	Calendar(ctx context.Context, in policy.CalendarInput) (*policy.CalendarOutput, error)
	Upcoming(ctx context.Context, in policy.UpcomingInput) ([]policy.UpcomingPost, error)
	PublishPost(ctx context.Context, in policy.PublishPostInput) (*policy.PublishReport, error)
}

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	policy    PostPolicy
	validate  *validator.Validate
	logger    *slog.Logger
	defaultTZ *time.Location
}

// NewPostHandler creates a new post handler.
// defaultTZ is used for calendar days and time slots when the request has no tz parameter.
func NewPostHandler(p PostPolicy, defaultTZ *time.Location, logger *slog.Logger) *PostHandler {
	if defaultTZ == nil {
		defaultTZ = time.UTC
	}
	return &PostHandler{
		policy:    p,
		validate:  newValidator(),
		logger:    logger,
		defaultTZ: defaultTZ,
	}
}

// RegisterRoutes registers post routes
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Post("/schedule", h.Schedule())
		r.Get("/statistics", h.Statistics())
		r.Get("/calendar", h.Calendar())
		r.Get("/upcoming", h.Upcoming())
		r.Get("/{id}", h.Get())
		r.Put("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
		r.Post("/{id}/publish", h.Publish())
		r.Get("/{id}/attempts", h.Attempts())
	})
}

// PostContentRequest is the publishable content shared by create and schedule requests
type PostContentRequest struct {
	Title     string   `json:"title" validate:"max=255"`
	Caption   string   `json:"caption"`
	Hashtags  []string `json:"hashtags"`
	ImageURL  string   `json:"image_url" validate:"omitempty,url"`
	Platforms []string `json:"platforms" validate:"omitempty,dive,oneof=facebook instagram linkedin twitter"`
}

func (req PostContentRequest) content() policy.ContentInput {
	return policy.ContentInput{
		Title:     req.Title,
		Caption:   req.Caption,
		Hashtags:  req.Hashtags,
		ImageURL:  req.ImageURL,
		Platforms: toPlatforms(req.Platforms),
	}
}

// CreatePostRequest represents the request body for creating a post
type CreatePostRequest struct {
	PostContentRequest
	ScheduledAt *string `json:"scheduled_at,omitempty"` // RFC3339 format
}

// Create handles POST /posts
func (h *PostHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePostRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		scheduledAt, err := parseTime(req.ScheduledAt, "scheduled_at")
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		post, err := h.policy.CreatePost(r.Context(), policy.CreatePostInput{
			AccountID:   AccountFromContext(r.Context()),
			Content:     req.content(),
			ScheduledAt: scheduledAt,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.Created(w, post)
	}
}

// RecurrenceRequest describes how a scheduled post repeats
type RecurrenceRequest struct {
	Frequency   string `json:"frequency"`
	Occurrences int    `json:"occurrences" validate:"min=1,max=52"`
}

// SchedulePostRequest represents the request body for scheduling posts
type SchedulePostRequest struct {
	PostContentRequest
	ScheduledAt string             `json:"scheduled_at" validate:"required"`
	Recurrence  *RecurrenceRequest `json:"recurrence,omitempty"`
}

// ScheduleResponse lists the IDs of the created posts in date order
type ScheduleResponse struct {
	IDs []string `json:"ids"`
}

// Schedule handles POST /posts/schedule
func (h *PostHandler) Schedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SchedulePostRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			response.BadRequest(w, "invalid scheduled_at format, use RFC3339")
			return
		}

		in := policy.SchedulePostInput{
			AccountID:   AccountFromContext(r.Context()),
			Content:     req.content(),
			ScheduledAt: scheduledAt,
		}
		if req.Recurrence != nil {
			freq, err := recurrence.ParseFrequency(req.Recurrence.Frequency)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			in.Recurrence = &policy.RecurrenceInput{Frequency: freq, Occurrences: req.Recurrence.Occurrences}
		}

		ids, err := h.policy.SchedulePost(r.Context(), in)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.Created(w, ScheduleResponse{IDs: ids})
	}
}

// Get handles GET /posts/{id}
func (h *PostHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.policy.GetPost(r.Context(), AccountFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, post)
	}
}

// UpdatePostRequest represents the request body for updating a post. Omitted fields are kept.
type UpdatePostRequest struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,max=255"`
	Caption       *string   `json:"caption,omitempty"`
	Hashtags      *[]string `json:"hashtags,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Platforms     []string  `json:"platforms,omitempty" validate:"omitempty,dive,oneof=facebook instagram linkedin twitter"`
	ScheduledAt   *string   `json:"scheduled_at,omitempty"`
	ClearSchedule bool      `json:"clear_schedule,omitempty"`
}

// Update handles PUT /posts/{id}
func (h *PostHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdatePostRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		scheduledAt, err := parseTime(req.ScheduledAt, "scheduled_at")
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		in := policy.UpdatePostInput{
			AccountID:     AccountFromContext(r.Context()),
			ID:            chi.URLParam(r, "id"),
			Title:         req.Title,
			Caption:       req.Caption,
			Hashtags:      req.Hashtags,
			ImageURL:      req.ImageURL,
			ScheduledAt:   scheduledAt,
			ClearSchedule: req.ClearSchedule,
		}
		if req.Platforms != nil {
			platforms := toPlatforms(req.Platforms)
			in.Platforms = &platforms
		}

		post, err := h.policy.UpdatePost(r.Context(), in)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, post)
	}
}

// Delete handles DELETE /posts/{id}
func (h *PostHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.policy.DeletePost(r.Context(), AccountFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.NoContent(w)
	}
}

// ListPostsResponse represents the response for listing posts
type ListPostsResponse struct {
	Posts []entity.Post `json:"posts"`
	Count int           `json:"count"`
}

// List handles GET /posts?status=&platform=&from=&to=&limit=
func (h *PostHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		in := policy.ListPostsInput{AccountID: AccountFromContext(r.Context())}

		if s := q.Get("status"); s != "" {
			status, err := entity.ParsePostStatus(s)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			in.Status = &status
		}

		platform, err := platformParam(q.Get("platform"))
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		in.Platform = platform

		from, to := q.Get("from"), q.Get("to")
		if in.From, err = parseTime(&from, "from"); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if in.To, err = parseTime(&to, "to"); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 500 {
				li = 500
			}
			in.Limit = li
		}

		posts, err := h.policy.ListPosts(r.Context(), in)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}
		if posts == nil {
			posts = []entity.Post{}
		}

		response.OK(w, ListPostsResponse{Posts: posts, Count: len(posts)})
	}
}

// Statistics handles GET /posts/statistics
func (h *PostHandler) Statistics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := h.policy.GetStatistics(r.Context(), AccountFromContext(r.Context()))
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, stats)
	}
}

// Calendar handles GET /posts/calendar?year=&month=&platform=&tz=
func (h *PostHandler) Calendar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		loc, err := h.location(q.Get("tz"))
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		now := time.Now().In(loc)
		year, month := now.Year(), int(now.Month())
		if y := q.Get("year"); y != "" {
			if year, err = strconv.Atoi(y); err != nil {
				response.BadRequest(w, "invalid year")
				return
			}
		}
		if m := q.Get("month"); m != "" {
			month, err = strconv.Atoi(m)
			if err != nil || month < 1 || month > 12 {
				response.BadRequest(w, "invalid month")
				return
			}
		}

		platform, err := platformParam(q.Get("platform"))
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		out, err := h.policy.Calendar(r.Context(), policy.CalendarInput{
			AccountID: AccountFromContext(r.Context()),
			Year:      year,
			Month:     time.Month(month),
			Platform:  platform,
			Location:  loc,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, out)
	}
}

// UpcomingResponse represents the response for upcoming posts
type UpcomingResponse struct {
	Posts []policy.UpcomingPost `json:"posts"`
}

// Upcoming handles GET /posts/upcoming?limit=&tz=
func (h *PostHandler) Upcoming() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		loc, err := h.location(q.Get("tz"))
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		var limit int
		if l := q.Get("limit"); l != "" {
			limit, err = strconv.Atoi(l)
			if err != nil || limit < 1 || limit > 100 {
				response.BadRequest(w, "invalid limit")
				return
			}
		}

		posts, err := h.policy.Upcoming(r.Context(), policy.UpcomingInput{
			AccountID: AccountFromContext(r.Context()),
			Limit:     limit,
			Location:  loc,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, UpcomingResponse{Posts: posts})
	}
}

// PublishRequest represents the request body for publishing a post
type PublishRequest struct {
	Platforms []string `json:"platforms" validate:"omitempty,dive,oneof=facebook instagram linkedin twitter"`
}

// Publish handles POST /posts/{id}/publish.
// The body is optional; without platforms the post's own platforms are used.
func (h *PostHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PublishRequest
		if err := decodeOptionalJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		report, err := h.policy.PublishPost(r.Context(), policy.PublishPostInput{
			AccountID: AccountFromContext(r.Context()),
			PostID:    chi.URLParam(r, "id"),
			Platforms: toPlatforms(req.Platforms),
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, report)
	}
}

// AttemptsResponse represents the publish history of a post
type AttemptsResponse struct {
	Attempts []entity.PublishAttempt `json:"attempts"`
}

// Attempts handles GET /posts/{id}/attempts
func (h *PostHandler) Attempts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attempts, err := h.policy.ListAttempts(r.Context(), AccountFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, AttemptsResponse{Attempts: attempts})
	}
}

func (h *PostHandler) location(tz string) (*time.Location, error) {
	if tz == "" {
		return h.defaultTZ, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", tz)
	}
	return loc, nil
}

func platformParam(s string) (*entity.Platform, error) {
	if s == "" {
		return nil, nil
	}
	p, err := entity.ParsePlatform(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func toPlatforms(in []string) []entity.Platform {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.Platform, len(in))
	for i, s := range in {
		out[i] = entity.Platform(s)
	}
	return out
}
