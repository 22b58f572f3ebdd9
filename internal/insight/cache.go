package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/akoval/checkwatch/internal/stats"
)

// Cached memoizes commentary per payload hash so repeated dashboard hits
// within the expiry window reuse a single upstream call. Eviction is lazy:
// expired entries are dropped on read, no background janitor runs.
type Cached struct {
	inner Commenter
	store *cache.Cache
}

// NewCached wraps inner with a TTL cache. A non-positive ttl defaults to one
// hour.
func NewCached(inner Commenter, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cached{
		inner: inner,
		store: cache.New(ttl, 0),
	}
}

// Comment returns the cached commentary for this set of products when fresh,
// otherwise asks the wrapped Commenter. Failures are not cached.
func (c *Cached) Comment(ctx context.Context, products []stats.ProductStat) (string, error) {
	payload, err := encodePayload(products)
	if err != nil {
		return "", err
	}
	key := payloadKey(payload)

	if cached, found := c.store.Get(key); found {
		return cached.(string), nil
	}

	commentary, err := c.inner.Comment(ctx, products)
	if err != nil {
		return "", err
	}
	c.store.Set(key, commentary, cache.DefaultExpiration)
	return commentary, nil
}

// Close closes the wrapped Commenter.
func (c *Cached) Close() error {
	return c.inner.Close()
}

func payloadKey(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
