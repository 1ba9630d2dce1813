package facebook

import (
	"context"
	"errors"
	"strings"

	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
)

// Config holds the page credentials used for publishing
type Config struct {
	PageID      string // "me" publishes as the token's own page
	AccessToken string
}

// Publisher publishes posts to a Facebook page
type Publisher struct {
	client *Client
	cfg    Config
}

var _ publisher.Publisher = (*Publisher)(nil)

// NewPublisher creates a new Facebook publisher
func NewPublisher(client *Client, cfg Config) *Publisher {
	if cfg.PageID == "" {
		cfg.PageID = "me"
	}
	return &Publisher{client: client, cfg: cfg}
}

// FormatMessage joins the caption and hashtags the way they appear on the page
func FormatMessage(caption string, hashtags []string) string {
	return caption + "\n\n" + strings.Join(hashtags, " ")
}

// Publish creates a photo post when an image is attached, a text post otherwise
func (p *Publisher) Publish(ctx context.Context, content publisher.Content) (*publisher.Result, error) {
	if p.cfg.AccessToken == "" {
		return nil, &entity.PlatformError{
			Platform: entity.PlatformFacebook,
			Message:  "facebook access token not configured",
		}
	}

	message := FormatMessage(content.Caption, content.Hashtags)

	var (
		out *CreatePostOutput
		err error
	)
	if content.ImageURL != "" {
		out, err = p.client.CreatePhotoPost(ctx, CreatePhotoPostInput{
			PageID:      p.cfg.PageID,
			AccessToken: p.cfg.AccessToken,
			Message:     message,
			ImageURL:    content.ImageURL,
		})
	} else {
		out, err = p.client.CreateFeedPost(ctx, CreateFeedPostInput{
			PageID:      p.cfg.PageID,
			AccessToken: p.cfg.AccessToken,
			Message:     message,
		})
	}
	if err != nil {
		return nil, toPlatformError(err)
	}

	return &publisher.Result{PlatformPostID: out.PlatformPostID()}, nil
}

func toPlatformError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &entity.PlatformError{
			Platform:   entity.PlatformFacebook,
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
		}
	}
	return err
}
