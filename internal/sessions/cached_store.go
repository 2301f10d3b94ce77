package sessions

import (
	"context"
	"errors"

	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
	"github.com/linkshare/linkshare/backend/session-store/pkg/metrics"
)

// CachedStore reads through the cache and writes to the store before the cache.
// Cache failures are logged and never fail the operation.
type CachedStore[S any, P Record[S]] struct {
	store Store[S]
	cache *Cache[S, P]
}

func NewCachedStore[S any, P Record[S]](store Store[S], cache *Cache[S, P]) *CachedStore[S, P] {
	return &CachedStore[S, P]{store: store, cache: cache}
}

func (c *CachedStore[S, P]) collection() string { return kindOf[S, P]().Collection }

func (c *CachedStore[S, P]) Insert(ctx context.Context, s *S) error {
	if err := c.store.Insert(ctx, s); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, s); err != nil {
		logger.Warnf("cache set %s failed: %v", c.collection(), err)
	}
	return nil
}

func (c *CachedStore[S, P]) Get(ctx context.Context, token string) (*S, error) {
	if c.cache.Enabled() {
		s, err := c.cache.Get(ctx, token)
		switch {
		case err != nil:
			metrics.SessionCache.WithLabelValues(c.collection(), "error").Inc()
			logger.Warnf("cache get %s failed: %v", c.collection(), err)
		case s != nil:
			metrics.SessionCache.WithLabelValues(c.collection(), "hit").Inc()
			return s, nil
		default:
			metrics.SessionCache.WithLabelValues(c.collection(), "miss").Inc()
		}
	}
	s, err := c.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, s); err != nil {
		logger.Warnf("cache fill %s failed: %v", c.collection(), err)
	}
	return s, nil
}

func (c *CachedStore[S, P]) Delete(ctx context.Context, token string) error {
	err := c.store.Delete(ctx, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if cerr := c.cache.Delete(ctx, token); cerr != nil {
		logger.Warnf("cache delete %s failed: %v", c.collection(), cerr)
	}
	return err
}

func (c *CachedStore[S, P]) DeleteByUser(ctx context.Context, userID int64) ([]string, error) {
	tokens, err := c.store.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cerr := c.cache.Delete(ctx, tokens...); cerr != nil {
		logger.Warnf("cache delete %s failed: %v", c.collection(), cerr)
	}
	return tokens, nil
}
