package entity

import "time"

// AttemptOutcome is the result of one platform publish call
type AttemptOutcome string

const (
	AttemptOutcomeSuccess AttemptOutcome = "success"
	AttemptOutcomeFailed  AttemptOutcome = "failed"
)

// PublishAttempt is an append-only audit record of one publish call to one platform
type PublishAttempt struct {
	ID             string         `json:"id"`
	PostID         string         `json:"post_id"`
	Platform       Platform       `json:"platform"`
	Outcome        AttemptOutcome `json:"outcome"`
	PlatformPostID string         `json:"platform_post_id,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Succeeded returns true if the platform accepted the content
func (a *PublishAttempt) Succeeded() bool {
	return a.Outcome == AttemptOutcomeSuccess
}

// AggregateStatus computes the post status after a publish run.
// One success is enough for the post to count as published.
func AggregateStatus(attempts []PublishAttempt) PostStatus {
	for i := range attempts {
		if attempts[i].Succeeded() {
			return PostStatusPublished
		}
	}
	return PostStatusFailed
}
