package entity

import (
	"errors"
	"time"
)

// ContentType selects what kind of text is generated
type ContentType string

const (
	ContentTypeCaption  ContentType = "caption"
	ContentTypeHashtags ContentType = "hashtags"
	ContentTypePost     ContentType = "post"
)

// IsValid reports whether the content type is known
func (t ContentType) IsValid() bool {
	switch t {
	case ContentTypeCaption, ContentTypeHashtags, ContentTypePost:
		return true
	default:
		return false
	}
}

// GeneratedContent is a piece of AI generated text kept for the account's history
type GeneratedContent struct {
	ID          string      `json:"id,omitempty"`
	AccountID   string      `json:"account_id"`
	Prompt      string      `json:"prompt"`
	ContentType ContentType `json:"content_type"`
	Platform    string      `json:"platform,omitempty"`
	Text        string      `json:"text"`
	CreatedAt   time.Time   `json:"created_at"`
}

// GeneratedImage is an AI generated image copied into our own storage
type GeneratedImage struct {
	ID            string    `json:"id,omitempty"`
	AccountID     string    `json:"account_id"`
	Prompt        string    `json:"prompt"`
	RevisedPrompt string    `json:"revised_prompt"`
	ImageURL      string    `json:"image_url"`
	StorageKey    string    `json:"-"`
	Size          string    `json:"size"`
	Quality       string    `json:"quality"`
	Style         string    `json:"style"`
	CreatedAt     time.Time `json:"created_at"`
}

// Image generation options
const (
	DefaultImageSize    = "1024x1024"
	DefaultImageQuality = "standard"
	DefaultImageStyle   = "vivid"
)

var (
	allowedSizes     = map[string]bool{"1024x1024": true, "1792x1024": true, "1024x1792": true}
	allowedQualities = map[string]bool{"standard": true, "hd": true}
	allowedStyles    = map[string]bool{"vivid": true, "natural": true}
)

// ValidateImageOptions checks size, quality and style against what the image model accepts
func ValidateImageOptions(size, quality, style string) error {
	if !allowedSizes[size] || !allowedQualities[quality] || !allowedStyles[style] {
		return ErrInvalidImageOption
	}
	return nil
}

// MaxPromptLength is the maximum length of a generation prompt
const MaxPromptLength = 4000

// Domain errors for content generation
var (
	ErrEmptyPrompt         = errors.New("prompt is required")
	ErrPromptTooLong       = errors.New("prompt exceeds maximum length")
	ErrInvalidContentType  = errors.New("content type must be one of caption, hashtags, post")
	ErrInvalidImageOption  = errors.New("unsupported image size, quality or style")
	ErrGenerationFailed    = errors.New("content generation failed")
	ErrGeneratorNotEnabled = errors.New("content generation is not configured")
)
