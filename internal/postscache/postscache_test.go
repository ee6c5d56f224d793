package postscache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/patric-chuzhbe/miniblog/internal/logger"
	"github.com/patric-chuzhbe/miniblog/internal/models"
)

// fakeClock is a settable wall clock safe for use from the janitor goroutine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func countingLoader(posts []models.Post) (Loader, *int) {
	calls := 0
	return func(ctx context.Context, userID int) ([]models.Post, error) {
		calls++
		return posts, nil
	}, &calls
}

func TestGetOrLoadServesFreshEntryWithoutReload(t *testing.T) {
	clock := newFakeClock()
	cache := New(5*time.Minute, WithNowFunc(clock.Now))
	loader, calls := countingLoader([]models.Post{{ID: 1, Text: "hello", UserID: 1}})

	first, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)
	require.Len(t, first, 1)

	clock.Advance(4*time.Minute + 59*time.Second)

	second, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, *calls)
}

func TestGetOrLoadReloadsExpiredEntry(t *testing.T) {
	clock := newFakeClock()
	cache := New(5*time.Minute, WithNowFunc(clock.Now))
	loader, calls := countingLoader([]models.Post{{ID: 1, Text: "hello", UserID: 1}})

	_, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)

	_, err = cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	assert.Equal(t, 2, *calls)
}

func TestInvalidateForcesReload(t *testing.T) {
	cache := New(5 * time.Minute)
	loader, calls := countingLoader([]models.Post{{ID: 1, Text: "hello", UserID: 1}})

	_, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	cache.Invalidate(1)

	_, err = cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	assert.Equal(t, 2, *calls)
}

func TestEntriesAreIsolatedPerUser(t *testing.T) {
	cache := New(5 * time.Minute)
	firstLoader, firstCalls := countingLoader([]models.Post{{ID: 1, Text: "first", UserID: 1}})
	secondLoader, secondCalls := countingLoader([]models.Post{{ID: 2, Text: "second", UserID: 2}})

	_, err := cache.GetOrLoad(context.Background(), 1, firstLoader)
	require.NoError(t, err)

	_, err = cache.GetOrLoad(context.Background(), 2, secondLoader)
	require.NoError(t, err)

	cache.Invalidate(1)

	_, err = cache.GetOrLoad(context.Background(), 2, secondLoader)
	require.NoError(t, err)

	assert.Equal(t, 1, *firstCalls)
	assert.Equal(t, 1, *secondCalls)
}

func TestLoaderErrorIsNotCached(t *testing.T) {
	cache := New(5 * time.Minute)
	someErr := errors.New("storage unavailable")
	calls := 0
	loader := func(ctx context.Context, userID int) ([]models.Post, error) {
		calls++
		if calls == 1 {
			return nil, someErr
		}
		return []models.Post{{ID: 1, Text: "hello", UserID: 1}}, nil
	}

	_, err := cache.GetOrLoad(context.Background(), 1, loader)
	assert.ErrorIs(t, err, someErr)
	assert.Equal(t, 0, cache.Len())

	posts, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestGetOrLoadReturnsACopy(t *testing.T) {
	cache := New(5 * time.Minute)
	loader, calls := countingLoader([]models.Post{{ID: 1, Text: "hello", UserID: 1}})

	first, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	first[0].Text = "mutated by caller"

	second, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)

	assert.Equal(t, "hello", second[0].Text)
	assert.Equal(t, 1, *calls)
}

func TestConcurrentAccess(t *testing.T) {
	cache := New(5 * time.Minute)
	posts := []models.Post{{ID: 1, Text: "hello", UserID: 1}}

	group, ctx := errgroup.WithContext(context.Background())
	for workerNum := 0; workerNum < 32; workerNum++ {
		workerNum := workerNum
		group.Go(func() error {
			userID := workerNum%4 + 1
			for iteration := 0; iteration < 100; iteration++ {
				got, err := cache.GetOrLoad(ctx, userID, func(ctx context.Context, userID int) ([]models.Post, error) {
					return posts, nil
				})
				if err != nil {
					return err
				}
				if len(got) != 1 {
					return errors.New("unexpected post list length")
				}
				if iteration%10 == 0 {
					cache.Invalidate(userID)
				}
			}
			return nil
		})
	}

	require.NoError(t, group.Wait())
}

func TestJanitorEvictsExpiredEntries(t *testing.T) {
	require.NoError(t, logger.Init("info"))

	clock := newFakeClock()
	cache := New(5*time.Minute, WithNowFunc(clock.Now))
	loader, _ := countingLoader([]models.Post{{ID: 1, Text: "hello", UserID: 1}})

	_, err := cache.GetOrLoad(context.Background(), 1, loader)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	clock.Advance(6 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache.Run(ctx, 5*time.Millisecond)

	assert.Eventually(
		t,
		func() bool { return cache.Len() == 0 },
		time.Second,
		5*time.Millisecond,
	)
}
