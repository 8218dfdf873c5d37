package translate

import (
	"context"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dkeye/Babel/internal/core"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/rs/zerolog/log"
)

// Cached memoizes successful translations of an upstream provider.
// Failures are never cached.
type Cached struct {
	next  core.Translator
	cache *ristretto.Cache[string, string]
}

// NewCached keeps up to size entries.
func NewCached(next core.Translator, size int64) (*Cached, error) {
	if size < 1 {
		size = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, string]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cached{next: next, cache: c}, nil
}

func cacheKey(text string, target domain.Language) string {
	return string(target) + "\x00" + text
}

func (c *Cached) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	key := cacheKey(text, target)
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := c.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}
	if !c.cache.Set(key, out, 1) {
		log.Debug().Str("module", "translate.cache").Str("lang", string(target)).Msg("cache set dropped")
	}
	return out, nil
}

// Wait blocks until pending writes are visible.
func (c *Cached) Wait() { c.cache.Wait() }

func (c *Cached) Close() { c.cache.Close() }
