// Package publisher maps platforms to the adapters that deliver content to them.
package publisher

import (
	"context"
	"sort"
	"sync"

	"github.com/vadim/neo-social/internal/domain/post/entity"
)

// Content is what a platform adapter receives
type Content struct {
	Caption  string
	Hashtags []string
	ImageURL string
}

// Result is returned by a platform adapter on success
type Result struct {
	PlatformPostID string
}

// Publisher delivers content to one platform.
// Rejections by the platform should be returned as *entity.PlatformError.
type Publisher interface {
	Publish(ctx context.Context, content Content) (*Result, error)
}

// PublisherFunc adapts a function to the Publisher interface
type PublisherFunc func(ctx context.Context, content Content) (*Result, error)

// Publish calls f
func (f PublisherFunc) Publish(ctx context.Context, content Content) (*Result, error) {
	return f(ctx, content)
}

// Registry resolves the publisher for a platform.
// Publishers may be registered while publishing is in progress.
type Registry struct {
	mu         sync.RWMutex
	publishers map[entity.Platform]Publisher
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{publishers: make(map[entity.Platform]Publisher)}
}

// Register binds a publisher to a platform, replacing any previous binding
func (r *Registry) Register(platform entity.Platform, p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[platform] = p
}

// Resolve returns the publisher for a platform
func (r *Registry) Resolve(platform entity.Platform) (Publisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	return p, ok
}

// Platforms lists the platforms that have a publisher, sorted
func (r *Registry) Platforms() []entity.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Platform, 0, len(r.publishers))
	for p := range r.publishers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
