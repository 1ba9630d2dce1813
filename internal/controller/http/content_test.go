package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/vadim/neo-social/internal/domain/content/entity"
	"github.com/vadim/neo-social/internal/domain/content/service"
)

type MockContentGenerator struct {
	mock.Mock
}

func (m *MockContentGenerator) GenerateText(ctx context.Context, in service.GenerateTextInput) (*entity.GeneratedContent, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GeneratedContent), args.Error(1)
}

func (m *MockContentGenerator) GenerateImage(ctx context.Context, in service.GenerateImageInput) (*entity.GeneratedImage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.GeneratedImage), args.Error(1)
}

func (m *MockContentGenerator) ListHistory(ctx context.Context, accountID string, limit int) ([]entity.GeneratedContent, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.GeneratedContent), args.Error(1)
}

func newContentRouter(g ContentGenerator) http.Handler {
	r := chi.NewRouter()
	r.Use(RequireAccount)
	NewContentHandler(g, discardLogger()).RegisterRoutes(r)
	return r
}

func TestContentHandler_GenerateText(t *testing.T) {
	g := new(MockContentGenerator)
	g.On("GenerateText", mock.Anything, service.GenerateTextInput{
		AccountID:   "acc-1",
		Prompt:      "coffee shop opening",
		ContentType: entity.ContentTypeCaption,
		Platform:    "instagram",
	}).Return(&entity.GeneratedContent{Text: "Grand opening!"}, nil)

	rr := doRequest(newContentRouter(g), http.MethodPost, "/content/generate", map[string]any{
		"prompt":       "coffee shop opening",
		"content_type": "caption",
		"platform":     "instagram",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Grand opening!")
	g.AssertExpectations(t)
}

func TestContentHandler_GenerateTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		genErr error
		want   int
	}{
		{"missing prompt", map[string]any{"content_type": "caption"}, nil, http.StatusBadRequest},
		{"bad content type", map[string]any{"prompt": "x", "content_type": "essay"}, nil, http.StatusBadRequest},
		{"not configured", map[string]any{"prompt": "x", "content_type": "post"}, entity.ErrGeneratorNotEnabled, http.StatusServiceUnavailable},
		{"model failed", map[string]any{"prompt": "x", "content_type": "post"}, entity.ErrGenerationFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := new(MockContentGenerator)
			if tt.genErr != nil {
				g.On("GenerateText", mock.Anything, mock.Anything).Return(nil, tt.genErr)
			}

			rr := doRequest(newContentRouter(g), http.MethodPost, "/content/generate", tt.body)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestContentHandler_GenerateImage(t *testing.T) {
	g := new(MockContentGenerator)
	g.On("GenerateImage", mock.Anything, service.GenerateImageInput{
		AccountID: "acc-1",
		Prompt:    "latte art",
		Quality:   "hd",
	}).Return(&entity.GeneratedImage{ImageURL: "https://cdn.example/generated/acc-1/a.png"}, nil)

	h := newContentRouter(g)
	rr := doRequest(h, http.MethodPost, "/content/images", map[string]any{"prompt": "latte art", "quality": "hd"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "https://cdn.example/generated/acc-1/a.png")

	rr = doRequest(h, http.MethodPost, "/content/images", map[string]any{"prompt": "latte art", "size": "640x480"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	g.AssertExpectations(t)
}

func TestContentHandler_History(t *testing.T) {
	g := new(MockContentGenerator)
	g.On("ListHistory", mock.Anything, "acc-1", 5).Return([]entity.GeneratedContent{{Text: "one"}}, nil)

	h := newContentRouter(g)
	rr := doRequest(h, http.MethodGet, "/content/history?limit=5", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"text":"one"`)

	rr = doRequest(h, http.MethodGet, "/content/history?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
