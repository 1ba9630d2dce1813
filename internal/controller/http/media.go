package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/h2non/filetype"

	"github.com/vadim/neo-social/internal/httpx/response"
	"github.com/vadim/neo-social/internal/storage"
)

// MaxUploadSize is the maximum allowed upload size (10MB)
const MaxUploadSize = 10 << 20

// sniffLen is how much of the file is read to detect its type
const sniffLen = 261

// MediaUploader defines the interface for uploading media
type MediaUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
}

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	uploader MediaUploader
	logger   *slog.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(uploader MediaUploader, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, logger: logger}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/media/upload", h.Upload())
}

// UploadResponse represents the response from upload endpoint
type UploadResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Upload handles POST /media/upload.
// The returned URL can be used as a post's image_url.
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		// The client's Content-Type is not trusted, the type comes from the bytes.
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			response.BadRequest(w, "failed to read file")
			return
		}
		head = head[:n]

		kind, _ := filetype.Match(head)
		if !filetype.IsImage(head) || !isAllowedImageType(kind.MIME.Value) {
			response.BadRequest(w, fmt.Sprintf("unsupported media type: %s", header.Header.Get("Content-Type")))
			return
		}

		result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			Reader:      io.MultiReader(bytes.NewReader(head), file),
			ContentType: kind.MIME.Value,
			Size:        header.Size,
			Prefix:      "uploads/" + AccountFromContext(r.Context()),
			Filename:    header.Filename,
		})
		if err != nil {
			h.logger.Error("media upload failed", "filename", header.Filename, "error", err)
			response.InternalError(w, "failed to upload file")
			return
		}

		response.Created(w, UploadResponse{
			URL:  result.URL,
			Key:  result.Key,
			Size: result.Size,
		})
	}
}

// isAllowedImageType checks if the detected type can be posted to the platforms
func isAllowedImageType(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}
