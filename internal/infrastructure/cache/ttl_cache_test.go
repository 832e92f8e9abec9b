package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestCache(ttl time.Duration, fetch FetchFunc[string]) (*TTLCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewTTLCache(ttl, fetch)
	c.now = clock.now
	return c, clock
}

func TestTTLCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches once while fresh", func(t *testing.T) {
		calls := 0
		c, clock := newTestCache(time.Minute, func(ctx context.Context) (string, error) {
			calls++
			return "token-1", nil
		})

		first := c.Get(ctx)
		clock.t = clock.t.Add(30 * time.Second)
		second := c.Get(ctx)

		assert.Equal(t, Fresh, first.State)
		assert.Equal(t, "token-1", second.Value)
		assert.Equal(t, Fresh, second.State)
		assert.Equal(t, 1, calls)
	})

	t.Run("refreshes after ttl", func(t *testing.T) {
		values := []string{"a", "b"}
		c, clock := newTestCache(time.Minute, func(ctx context.Context) (string, error) {
			v := values[0]
			values = values[1:]
			return v, nil
		})

		assert.Equal(t, "a", c.Get(ctx).Value)
		clock.t = clock.t.Add(time.Minute)
		assert.Equal(t, "b", c.Get(ctx).Value)
	})

	t.Run("stale value when refresh fails", func(t *testing.T) {
		fail := false
		c, clock := newTestCache(time.Minute, func(ctx context.Context) (string, error) {
			if fail {
				return "", errors.New("store down")
			}
			return "cached", nil
		})

		c.Get(ctx)
		fail = true
		clock.t = clock.t.Add(2 * time.Minute)
		got := c.Get(ctx)

		assert.Equal(t, Stale, got.State)
		assert.Equal(t, "cached", got.Value)
		assert.EqualError(t, got.Err, "store down")
	})

	t.Run("unavailable without prior value", func(t *testing.T) {
		c, _ := newTestCache(time.Minute, func(ctx context.Context) (string, error) {
			return "", errors.New("store down")
		})

		got := c.Get(ctx)
		assert.Equal(t, Unavailable, got.State)
		assert.Empty(t, got.Value)
		assert.Error(t, got.Err)
	})

	t.Run("invalidate forces refresh", func(t *testing.T) {
		calls := 0
		c, _ := newTestCache(time.Hour, func(ctx context.Context) (string, error) {
			calls++
			return "v", nil
		})

		c.Get(ctx)
		c.Invalidate()
		c.Get(ctx)
		assert.Equal(t, 2, calls)
	})
}

func TestTTLCache_ConcurrentGet(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := NewTTLCache(time.Hour, func(ctx context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return 42, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 42, c.Get(context.Background()).Value)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fresh", Fresh.String())
	assert.Equal(t, "stale", Stale.String())
	assert.Equal(t, "unavailable", Unavailable.String())
}
