package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/helenrm365/rm365-tools-testing-sub001/internal/domain/shared"
	"github.com/helenrm365/rm365-tools-testing-sub001/internal/infrastructure/cache"
)

// TokenSource provides the bearer token for catalog requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token taken from configuration.
type StaticToken string

// Token returns the configured token
func (t StaticToken) Token(context.Context) (string, error) {
	v := strings.TrimSpace(string(t))
	if v == "" {
		return "", shared.NewUpstreamError("token", errors.New("no static catalog token configured"))
	}
	return v, nil
}

// CachedTokenSource keeps a token from another source for ttl. When a refresh
// fails the last good token is served, since the refresher that owns it may
// simply be late.
type CachedTokenSource struct {
	cache *cache.TTLCache[string]
}

// NewCachedTokenSource wraps src with a TTL cache
func NewCachedTokenSource(src TokenSource, ttl time.Duration) *CachedTokenSource {
	return &CachedTokenSource{cache: cache.NewTTLCache(ttl, src.Token)}
}

// Token returns the cached token, refreshing it when expired
func (s *CachedTokenSource) Token(ctx context.Context) (string, error) {
	res := s.cache.Get(ctx)
	if res.State == cache.Unavailable {
		return "", res.Err
	}
	return res.Value, nil
}

// Invalidate drops the cached token so the next call refreshes it
func (s *CachedTokenSource) Invalidate() {
	s.cache.Invalidate()
}

type invalidator interface {
	Invalidate()
}
