package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/vadim/neo-social/internal/domain/content/entity"
	"github.com/vadim/neo-social/internal/httpx/upstream/openai"
	"github.com/vadim/neo-social/internal/storage"
)

// Generator is the text and image model backend
type Generator interface {
	CreateChatCompletion(ctx context.Context, in openai.ChatCompletionInput) (*openai.ChatCompletionOutput, error)
	CreateImage(ctx context.Context, in openai.ImageGenerationInput) (*openai.ImageGenerationOutput, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// ObjectStorage stores generated images
type ObjectStorage interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
}

// ContentRepository keeps the generation history
type ContentRepository interface {
	SaveText(ctx context.Context, c *entity.GeneratedContent) error
	SaveImage(ctx context.Context, img *entity.GeneratedImage) error
	ListTexts(ctx context.Context, accountID string, limit int) ([]entity.GeneratedContent, error)
}

// Models names the models used for generation
type Models struct {
	Text  string
	Image string
}

// Service handles AI content generation
type Service struct {
	gen    Generator
	store  ObjectStorage
	repo   ContentRepository
	models Models
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new content service
func New(gen Generator, store ObjectStorage, repo ContentRepository, models Models, logger *slog.Logger) *Service {
	if models.Text == "" {
		models.Text = "gpt-4o"
	}
	if models.Image == "" {
		models.Image = "dall-e-3"
	}
	return &Service{
		gen:    gen,
		store:  store,
		repo:   repo,
		models: models,
		logger: logger,
		now:    time.Now,
	}
}

const textTemperature = 0.8

// GenerateTextInput represents input for text generation
type GenerateTextInput struct {
	AccountID   string
	Prompt      string
	ContentType entity.ContentType
	Platform    string // optional, tunes the wording for one network
}

// GenerateText generates a caption, a hashtag list or a full post.
// Saving to the history is best effort: the text is returned even if it could not be stored.
func (s *Service) GenerateText(ctx context.Context, in GenerateTextInput) (*entity.GeneratedContent, error) {
	if err := validatePrompt(in.Prompt); err != nil {
		return nil, err
	}
	if !in.ContentType.IsValid() {
		return nil, entity.ErrInvalidContentType
	}

	maxTokens := 500
	if in.ContentType == entity.ContentTypeHashtags {
		maxTokens = 200
	}

	out, err := s.gen.CreateChatCompletion(ctx, openai.ChatCompletionInput{
		Model: s.models.Text,
		Messages: []openai.Message{
			{Role: "system", Content: systemPrompt(in.ContentType, in.Platform)},
			{Role: "user", Content: in.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: textTemperature,
	})
	if err != nil {
		return nil, generationError(err)
	}

	content := &entity.GeneratedContent{
		ID:          uuid.New().String(),
		AccountID:   in.AccountID,
		Prompt:      in.Prompt,
		ContentType: in.ContentType,
		Platform:    in.Platform,
		Text:        strings.TrimSpace(out.Text()),
		CreatedAt:   s.now(),
	}

	if err := s.repo.SaveText(ctx, content); err != nil {
		s.logger.Error("failed to save generated content", "account_id", in.AccountID, "error", err)
		content.ID = ""
	}

	return content, nil
}

// GenerateImageInput represents input for image generation
type GenerateImageInput struct {
	AccountID string
	Prompt    string
	Size      string
	Quality   string
	Style     string
}

// GenerateImage generates an image, copies it into our storage and returns its public URL.
// The model's URL expires, so the image is always re-hosted. Recording the image in the
// history is best effort.
func (s *Service) GenerateImage(ctx context.Context, in GenerateImageInput) (*entity.GeneratedImage, error) {
	if err := validatePrompt(in.Prompt); err != nil {
		return nil, err
	}

	size := orDefault(in.Size, entity.DefaultImageSize)
	quality := orDefault(in.Quality, entity.DefaultImageQuality)
	style := orDefault(in.Style, entity.DefaultImageStyle)
	if err := entity.ValidateImageOptions(size, quality, style); err != nil {
		return nil, err
	}

	out, err := s.gen.CreateImage(ctx, openai.ImageGenerationInput{
		Model:   s.models.Image,
		Prompt:  in.Prompt,
		Size:    size,
		Quality: quality,
		Style:   style,
		N:       1,
	})
	if err != nil {
		return nil, generationError(err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: no image returned", entity.ErrGenerationFailed)
	}
	generated := out.Data[0]

	data, contentType, err := s.gen.Download(ctx, generated.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		contentType = kind.MIME.Value
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: downloaded file is not an image (%s)", entity.ErrGenerationFailed, contentType)
	}

	uploaded, err := s.store.Upload(ctx, storage.UploadInput{
		Reader:      bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
		Prefix:      "generated/" + in.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("storing generated image: %w", err)
	}

	revised := generated.RevisedPrompt
	if revised == "" {
		revised = in.Prompt
	}

	img := &entity.GeneratedImage{
		ID:            uuid.New().String(),
		AccountID:     in.AccountID,
		Prompt:        in.Prompt,
		RevisedPrompt: revised,
		ImageURL:      uploaded.URL,
		StorageKey:    uploaded.Key,
		Size:          size,
		Quality:       quality,
		Style:         style,
		CreatedAt:     s.now(),
	}

	if err := s.repo.SaveImage(ctx, img); err != nil {
		s.logger.Error("failed to save generated image", "account_id", in.AccountID, "key", uploaded.Key, "error", err)
		img.ID = ""
	}

	return img, nil
}

// ListHistory returns the account's latest generated texts
func (s *Service) ListHistory(ctx context.Context, accountID string, limit int) ([]entity.GeneratedContent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := s.repo.ListTexts(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.GeneratedContent{}
	}
	return items, nil
}

func systemPrompt(t entity.ContentType, platform string) string {
	target := platform
	if target == "" {
		target = "social media"
	}

	switch t {
	case entity.ContentTypeCaption:
		return "You are a social media expert. Generate engaging, creative captions for social media posts. " +
			"Make them conversational, authentic, and optimized for " + target + ". " +
			"Include relevant emojis when appropriate. Keep it concise but impactful."
	case entity.ContentTypeHashtags:
		if platform == "" {
			target = "general social media"
		}
		return "You are a hashtag specialist. Generate 10-15 relevant, trending hashtags for social media posts. " +
			"Mix popular hashtags with niche ones. Focus on " + target + " best practices. " +
			"Return only hashtags separated by spaces."
	case entity.ContentTypePost:
		return "You are a content creator. Generate a complete social media post including caption and " +
			"suggested hashtags optimized for " + target + ". Make it engaging, authentic, and platform-appropriate."
	default:
		return "You are a helpful social media content assistant."
	}
}

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return entity.ErrEmptyPrompt
	}
	if len(prompt) > entity.MaxPromptLength {
		return entity.ErrPromptTooLong
	}
	return nil
}

func generationError(err error) error {
	if errors.Is(err, openai.ErrNotConfigured) {
		return entity.ErrGeneratorNotEnabled
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", entity.ErrGenerationFailed, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
