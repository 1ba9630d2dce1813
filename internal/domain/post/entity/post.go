package entity

import (
	"strings"
	"time"
)

// Platform identifies an external social network
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

// KnownPlatforms lists every platform a post may target
var KnownPlatforms = []Platform{PlatformFacebook, PlatformInstagram, PlatformLinkedIn, PlatformTwitter}

// ParsePlatform parses a platform identifier (case-insensitive)
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", ErrInvalidPlatform
}

// PostStatus represents the lifecycle state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

// ParsePostStatus parses a status string
func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(s) {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublished, PostStatusFailed:
		return PostStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Post is the canonical content record
type Post struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	Title       string     `json:"title,omitempty"`
	Caption     string     `json:"caption"`
	Hashtags    []string   `json:"hashtags"`
	ImageURL    string     `json:"image_url,omitempty"`
	Platforms   []Platform `json:"platforms"`
	Status      PostStatus `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOwnedBy reports whether the post belongs to the given account
func (p *Post) IsOwnedBy(accountID string) bool {
	return p.AccountID == accountID
}

// IsEditable returns true if the post content can still be changed
func (p *Post) IsEditable() bool {
	return p.Status != PostStatusPublished
}

// Validate checks the structural invariants of a post
func (p *Post) Validate() error {
	if p.AccountID == "" {
		return ErrEmptyAccountID
	}
	if _, err := ParsePostStatus(string(p.Status)); err != nil {
		return err
	}
	if p.Status == PostStatusScheduled && p.ScheduledAt == nil {
		return ErrScheduleTimeRequired
	}
	if len(p.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if len(p.Caption) > MaxCaptionLength {
		return ErrCaptionTooLong
	}
	seen := make(map[Platform]struct{}, len(p.Platforms))
	for _, pl := range p.Platforms {
		if _, err := ParsePlatform(string(pl)); err != nil {
			return err
		}
		if _, dup := seen[pl]; dup {
			return ErrDuplicatePlatform
		}
		seen[pl] = struct{}{}
	}
	return nil
}

// MaxTitleLength is the maximum length of a post title
const MaxTitleLength = 255

// MaxCaptionLength is the maximum length of a caption
const MaxCaptionLength = 63206

// MaxOccurrences caps how many posts one recurring schedule may create
const MaxOccurrences = 52

// NormalizeHashtags trims tags, drops empty ones and makes sure each starts with '#'.
// Order is preserved.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		t = strings.TrimLeft(t, "#")
		if t == "" {
			continue
		}
		out = append(out, "#"+t)
	}
	return out
}

// UniquePlatforms removes duplicates keeping the first occurrence
func UniquePlatforms(platforms []Platform) []Platform {
	out := make([]Platform, 0, len(platforms))
	seen := make(map[Platform]struct{}, len(platforms))
	for _, p := range platforms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
