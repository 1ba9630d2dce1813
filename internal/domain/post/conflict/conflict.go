// Package conflict flags posts that share the same time of day.
//
// Detection is advisory. It never blocks scheduling.
package conflict

import (
	"sort"
	"time"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

const slotLayout = "15:04"

// Slot returns the HH:MM key of a post's scheduled time in loc.
// ok is false for posts that are not scheduled.
func Slot(p entity.Post, loc *time.Location) (string, bool) {
	if p.ScheduledAt == nil {
		return "", false
	}
	return p.ScheduledAt.In(orUTC(loc)).Format(slotLayout), true
}

// HasConflict reports whether two or more posts share the same HH:MM slot.
// Posts are compared in UTC. Platforms are ignored.
func HasConflict(posts []entity.Post) bool {
	return len(ConflictingSlots(posts, time.UTC)) > 0
}

// ConflictingSlots returns the HH:MM slots used by more than one post, in ascending order
func ConflictingSlots(posts []entity.Post, loc *time.Location) []string {
	counts := make(map[string]int, len(posts))
	for _, p := range posts {
		if slot, ok := Slot(p, loc); ok {
			counts[slot]++
		}
	}

	var slots []string
	for slot, n := range counts {
		if n > 1 {
			slots = append(slots, slot)
		}
	}
	sort.Strings(slots)
	return slots
}

// Day is the set of scheduled posts falling on one calendar day
type Day struct {
	Date             string        `json:"date"` // YYYY-MM-DD in the requested location
	Posts            []entity.Post `json:"posts"`
	HasConflict      bool          `json:"has_conflict"`
	ConflictingSlots []string      `json:"conflicting_slots,omitempty"`
}

// GroupByDay buckets scheduled posts by their calendar day in loc and flags conflicts per day.
// Days are returned in ascending order, posts inside a day by scheduled time.
// Posts without a scheduled time are skipped.
func GroupByDay(posts []entity.Post, loc *time.Location) []Day {
	loc = orUTC(loc)

	buckets := make(map[string][]entity.Post)
	for _, p := range posts {
		if p.ScheduledAt == nil {
			continue
		}
		key := p.ScheduledAt.In(loc).Format(time.DateOnly)
		buckets[key] = append(buckets[key], p)
	}

	days := make([]Day, 0, len(buckets))
	for date, dayPosts := range buckets {
		sort.SliceStable(dayPosts, func(i, j int) bool {
			return dayPosts[i].ScheduledAt.Before(*dayPosts[j].ScheduledAt)
		})
		slots := ConflictingSlots(dayPosts, loc)
		days = append(days, Day{
			Date:             date,
			Posts:            dayPosts,
			HasConflict:      len(slots) > 0,
			ConflictingSlots: slots,
		})
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
