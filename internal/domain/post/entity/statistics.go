package entity

// PostStatistics represents aggregated post counts for an account
type PostStatistics struct {
	DraftCount     int              `json:"draft_count"`
	ScheduledCount int              `json:"scheduled_count"`
	PublishedCount int              `json:"published_count"`
	FailedCount    int              `json:"failed_count"`
	ByPlatform     map[Platform]int `json:"by_platform"` // successful attempts per platform
}

// Add increments the counter matching the given status
func (s *PostStatistics) Add(status PostStatus, n int) {
	switch status {
	case PostStatusDraft:
		s.DraftCount += n
	case PostStatusScheduled:
		s.ScheduledCount += n
	case PostStatusPublished:
		s.PublishedCount += n
	case PostStatusFailed:
		s.FailedCount += n
	}
}
