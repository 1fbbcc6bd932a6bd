package providers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

// Recognizer is the contract every provider in this package satisfies
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]types.Entity, error)
}

// Cached memoizes another recognizer's results keyed by the SHA-256 of the
// input text. Errors are not cached.
type Cached struct {
	next  Recognizer
	cache *cache.Cache
	log   *logrus.Entry
}

// NewCached wraps next with an in-memory cache whose entries live for ttl.
func NewCached(next Recognizer, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
		log:   logging.For("entities.cache"),
	}
}

// Recognize returns the cached result for text or asks the wrapped recognizer.
func (c *Cached) Recognize(ctx context.Context, text string) ([]types.Entity, error) {
	sum := sha256.Sum256([]byte(text))
	key := hex.EncodeToString(sum[:])

	if v, found := c.cache.Get(key); found {
		if entities, ok := v.([]types.Entity); ok {
			c.log.WithField("key", key[:12]).Debug("Entity cache hit")
			return entities, nil
		}
	}

	entities, err := c.next.Recognize(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, entities, cache.DefaultExpiration)
	return entities, nil
}

// Len returns the number of cached results (expired ones included until cleanup).
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
