package instagram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
)

// Config holds the business account credentials used for publishing
type Config struct {
	UserID       string
	AccessToken  string
	PollInterval time.Duration // container status polling, default 2s
	MaxPolls     int           // default 10, polling also stops before the context deadline
}

// Publisher handles the container workflow for Instagram image posts
type Publisher struct {
	client *Client
	cfg    Config
}

var _ publisher.Publisher = (*Publisher)(nil)

// NewPublisher creates a new Instagram publisher
func NewPublisher(client *Client, cfg Config) *Publisher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 10
	}
	return &Publisher{client: client, cfg: cfg}
}

// Publish creates an image container, waits until it is processed and publishes it.
// Instagram has no text-only posts, so content without an image is rejected.
func (p *Publisher) Publish(ctx context.Context, content publisher.Content) (*publisher.Result, error) {
	if p.cfg.AccessToken == "" || p.cfg.UserID == "" {
		return nil, platformError(0, "instagram account not configured")
	}
	if content.ImageURL == "" {
		return nil, platformError(0, "instagram posts require an image")
	}

	caption := content.Caption
	if len(content.Hashtags) > 0 {
		caption += "\n\n" + strings.Join(content.Hashtags, " ")
	}

	container, err := p.client.CreateImageContainer(ctx, CreateImageContainerInput{
		UserID:      p.cfg.UserID,
		AccessToken: p.cfg.AccessToken,
		ImageURL:    content.ImageURL,
		Caption:     caption,
	})
	if err != nil {
		return nil, toPlatformError(err)
	}

	if err := p.waitForContainer(ctx, container.ID); err != nil {
		return nil, toPlatformError(err)
	}

	out, err := p.client.PublishContainer(ctx, p.cfg.UserID, p.cfg.AccessToken, container.ID)
	if err != nil {
		return nil, toPlatformError(err)
	}

	return &publisher.Result{PlatformPostID: out.ID}, nil
}

// waitForContainer polls until the container is ready for publishing.
// It gives up early when the next poll would run past the context deadline.
func (p *Publisher) waitForContainer(ctx context.Context, containerID string) error {
	for i := 0; i < p.cfg.MaxPolls; i++ {
		status, err := p.client.GetContainerStatus(ctx, containerID, p.cfg.AccessToken)
		if err != nil {
			return fmt.Errorf("checking container status: %w", err)
		}

		switch status.Status {
		case ContainerStatusFinished, ContainerStatusPublished:
			return nil
		case ContainerStatusError:
			return platformError(0, "container error: "+status.ErrorMessage)
		case ContainerStatusExpired:
			return platformError(0, "container expired")
		}

		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= p.cfg.PollInterval {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}
	}

	return platformError(0, "media container not ready")
}

func platformError(status int, msg string) *entity.PlatformError {
	return &entity.PlatformError{Platform: entity.PlatformInstagram, StatusCode: status, Message: msg}
}

func toPlatformError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return platformError(apiErr.StatusCode, apiErr.Message)
	}
	return err
}
