// Package postscache implements a per-user read-through cache for post lists.
// Each user has at most one entry: a snapshot of their posts together with the
// capture timestamp. An entry older than the TTL is never served.
package postscache

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/miniblog/internal/logger"
	"github.com/patric-chuzhbe/miniblog/internal/models"
)

// Loader fetches the post list of a user from the backing store.
// It is invoked on a cache miss.
type Loader func(ctx context.Context, userID int) ([]models.Post, error)

type cacheEntry struct {
	capturedAt time.Time
	posts      []models.Post
}

// Cache is a process-wide shared structure; its internal map is guarded by a
// mutex. Concurrent misses for the same user may both invoke the loader - the
// last write wins, which is tolerated by design of the read path.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int]cacheEntry
	now     func() time.Time
}

// InitOption is a functional option for New.
type InitOption func(*Cache)

// WithNowFunc replaces the wall clock used for entry age checks.
// Tests use it to step through TTL boundaries.
func WithNowFunc(now func() time.Time) InitOption {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache whose entries live for ttl from their capture time.
func New(ttl time.Duration, optionsProto ...InitOption) *Cache {
	result := &Cache{
		ttl:     ttl,
		entries: map[int]cacheEntry{},
		now:     time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(result)
	}

	return result
}

// GetOrLoad returns the cached post list of the user if the entry is younger
// than the TTL; otherwise it invokes the loader, stores the fresh snapshot,
// and returns it. The loader runs outside the cache lock, so it never blocks
// reads for other users.
func (c *Cache) GetOrLoad(ctx context.Context, userID int, loader Loader) ([]models.Post, error) {
	c.mu.Lock()
	entry, found := c.entries[userID]
	if found && c.now().Sub(entry.capturedAt) < c.ttl {
		posts := clonePosts(entry.posts)
		c.mu.Unlock()

		return posts, nil
	}
	if found {
		delete(c.entries, userID)
	}
	c.mu.Unlock()

	posts, err := loader(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[userID] = cacheEntry{
		capturedAt: c.now(),
		posts:      clonePosts(posts),
	}
	c.mu.Unlock()

	return posts, nil
}

// Invalidate removes the cached entry of the user. It is a no-op when there
// is none.
func (c *Cache) Invalidate(userID int) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Len returns the number of currently cached entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Run starts a background janitor that periodically drops expired entries so
// an idle cache does not pin dead snapshots in memory. Eviction here is an
// optimization only; the read path never serves an expired entry regardless.
// The janitor stops when the context is canceled.
func (c *Cache) Run(ctx context.Context, cleanupInterval time.Duration) {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := c.evictExpired()
				if evicted > 0 {
					logger.Log.Debugf("posts cache janitor evicted %d expired entries", evicted)
				}
			}
		}
	}()
}

func (c *Cache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for userID, entry := range c.entries {
		if c.now().Sub(entry.capturedAt) >= c.ttl {
			delete(c.entries, userID)
			evicted++
		}
	}

	return evicted
}

func clonePosts(posts []models.Post) []models.Post {
	result := make([]models.Post, len(posts))
	copy(result, posts)

	return result
}
