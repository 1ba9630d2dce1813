package policy

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vadim/neo-social/internal/domain/post/entity"
	"github.com/vadim/neo-social/internal/domain/post/publisher"
)

// PublishPostInput represents input for publishing a post
type PublishPostInput struct {
	AccountID string
	PostID    string
	// Platforms to publish to, in order. Empty means the post's own platforms.
	Platforms []entity.Platform
}

// PlatformResult is the outcome for one platform.
// Attempt always reflects what happened on the platform. AuditError is set when the
// attempt could not be written to the audit log.
type PlatformResult struct {
	Attempt    entity.PublishAttempt `json:"attempt"`
	AuditError string                `json:"audit_error,omitempty"`
}

// PublishReport is the full result of one publish run
type PublishReport struct {
	PostID  string            `json:"post_id"`
	Status  entity.PostStatus `json:"status"`
	Results []PlatformResult  `json:"results"`
	// StatusWarning is set when the aggregate status could not be saved on the post.
	// The platform calls already happened and are not rolled back.
	StatusWarning string `json:"status_warning,omitempty"`
}

// Succeeded lists the platforms that accepted the content
func (r *PublishReport) Succeeded() []entity.Platform {
	var out []entity.Platform
	for _, res := range r.Results {
		if res.Attempt.Succeeded() {
			out = append(out, res.Attempt.Platform)
		}
	}
	return out
}

// PublishPost publishes a post to each target platform and records one attempt per platform.
//
// A platform failure never aborts the others. Only a missing post or malformed input fail the
// whole call. Audit and status write failures are logged and reported on the result.
func (p *Policy) PublishPost(ctx context.Context, in PublishPostInput) (*PublishReport, error) {
	post, err := p.svc.GetPost(ctx, in.AccountID, in.PostID)
	if errors.Is(err, entity.ErrUnauthorized) {
		return nil, entity.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(post.Caption) == "" {
		return nil, entity.ErrEmptyCaption
	}

	targets := in.Platforms
	if len(targets) == 0 {
		targets = post.Platforms
	}
	targets = entity.UniquePlatforms(targets)
	if len(targets) == 0 {
		return nil, entity.ErrNoPlatforms
	}

	content := publisher.Content{
		Caption:  post.Caption,
		Hashtags: post.Hashtags,
		ImageURL: post.ImageURL,
	}

	// Platform calls are not aborted when the caller goes away.
	runCtx := context.WithoutCancel(ctx)

	results := make([]PlatformResult, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i, platform := range targets {
		g.Go(func() error {
			results[i] = p.publishTo(runCtx, post.ID, platform, content)
			return nil
		})
	}
	_ = g.Wait()

	attempts := make([]entity.PublishAttempt, len(results))
	for i := range results {
		attempts[i] = results[i].Attempt
	}

	report := &PublishReport{
		PostID:  post.ID,
		Status:  entity.AggregateStatus(attempts),
		Results: results,
	}

	if err := p.svc.SetStatus(runCtx, post.ID, report.Status); err != nil {
		p.logger.Error("failed to save post status",
			"post_id", post.ID,
			"status", string(report.Status),
			"error", err,
		)
		report.StatusWarning = err.Error()
	}

	p.logger.Info("post publish completed",
		"post_id", post.ID,
		"status", string(report.Status),
		"platforms", len(targets),
		"succeeded", len(report.Succeeded()),
	)

	return report, nil
}

// publishTo runs one platform call and appends its attempt
func (p *Policy) publishTo(ctx context.Context, postID string, platform entity.Platform, content publisher.Content) PlatformResult {
	attempt := entity.PublishAttempt{
		PostID:   postID,
		Platform: platform,
	}

	pub, ok := p.publishers.Resolve(platform)
	if !ok {
		attempt.Outcome = entity.AttemptOutcomeFailed
		attempt.ErrorMessage = entity.ErrPlatformNotSupported.Error()
	} else {
		callCtx, cancel := context.WithTimeout(ctx, p.platformTimeout)
		res, err := pub.Publish(callCtx, content)
		cancel()

		switch {
		case err != nil:
			attempt.Outcome = entity.AttemptOutcomeFailed
			attempt.ErrorMessage = p.platformMessage(err)
			p.logger.Warn("platform rejected post",
				"post_id", postID,
				"platform", string(platform),
				"error", err,
			)
		default:
			publishedAt := p.now()
			attempt.Outcome = entity.AttemptOutcomeSuccess
			attempt.PublishedAt = &publishedAt
			if res != nil {
				attempt.PlatformPostID = res.PlatformPostID
			}
		}
	}

	result := PlatformResult{}
	if err := p.svc.RecordAttempt(ctx, &attempt); err != nil {
		p.logger.Error("failed to record publish attempt",
			"post_id", postID,
			"platform", string(platform),
			"error", err,
		)
		result.AuditError = err.Error()
	}
	result.Attempt = attempt

	return result
}

// platformMessage keeps the platform's own wording when it is available
func (p *Policy) platformMessage(err error) string {
	var perr *entity.PlatformError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "platform call timed out after " + p.platformTimeout.String()
	}
	return err.Error()
}
