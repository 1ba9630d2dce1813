package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vadim/neo-social/internal/domain/content/entity"
	"github.com/vadim/neo-social/internal/domain/content/service"
	"github.com/vadim/neo-social/internal/httpx/response"
)

// ContentGenerator defines the interface for AI content generation
type ContentGenerator interface {
	GenerateText(ctx context.Context, in service.GenerateTextInput) (*entity.GeneratedContent, error)
	GenerateImage(ctx context.Context, in service.GenerateImageInput) (*entity.GeneratedImage, error)
	ListHistory(ctx context.Context, accountID string, limit int) ([]entity.GeneratedContent, error)
}

// ContentHandler handles HTTP requests for generated content
type ContentHandler struct {
	generator ContentGenerator
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(g ContentGenerator, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		generator: g,
		validate:  newValidator(),
		logger:    logger,
	}
}

// RegisterRoutes registers content routes
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Post("/generate", h.GenerateText())
		r.Post("/images", h.GenerateImage())
		r.Get("/history", h.History())
	})
}

// GenerateTextRequest represents the request body for text generation
type GenerateTextRequest struct {
	Prompt      string `json:"prompt" validate:"required,max=4000"`
	ContentType string `json:"content_type" validate:"required,oneof=caption hashtags post"`
	Platform    string `json:"platform" validate:"omitempty,oneof=facebook instagram linkedin twitter"`
}

// GenerateText handles POST /content/generate
func (h *ContentHandler) GenerateText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateTextRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		out, err := h.generator.GenerateText(r.Context(), service.GenerateTextInput{
			AccountID:   AccountFromContext(r.Context()),
			Prompt:      req.Prompt,
			ContentType: entity.ContentType(req.ContentType),
			Platform:    req.Platform,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, out)
	}
}

// GenerateImageRequest represents the request body for image generation
type GenerateImageRequest struct {
	Prompt  string `json:"prompt" validate:"required,max=4000"`
	Size    string `json:"size" validate:"omitempty,oneof=1024x1024 1792x1024 1024x1792"`
	Quality string `json:"quality" validate:"omitempty,oneof=standard hd"`
	Style   string `json:"style" validate:"omitempty,oneof=vivid natural"`
}

// GenerateImage handles POST /content/images
func (h *ContentHandler) GenerateImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateImageRequest
		if err := decodeJSON(r, h.validate, &req); err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		img, err := h.generator.GenerateImage(r.Context(), service.GenerateImageInput{
			AccountID: AccountFromContext(r.Context()),
			Prompt:    req.Prompt,
			Size:      req.Size,
			Quality:   req.Quality,
			Style:     req.Style,
		})
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.Created(w, img)
	}
}

// HistoryResponse represents the account's generation history
type HistoryResponse struct {
	Items []entity.GeneratedContent `json:"items"`
}

// History handles GET /content/history?limit=
func (h *ContentHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var limit int
		if l := r.URL.Query().Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			limit = li
		}

		items, err := h.generator.ListHistory(r.Context(), AccountFromContext(r.Context()), limit)
		if err != nil {
			handleDomainError(w, h.logger, err)
			return
		}

		response.OK(w, HistoryResponse{Items: items})
	}
}
