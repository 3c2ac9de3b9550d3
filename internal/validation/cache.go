package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/phrazzld/scry-tutor/internal/scoring"
)

const (
	// DefaultEmbeddingCacheSize bounds the number of cached answer embeddings.
	DefaultEmbeddingCacheSize = 4096

	// DefaultEmbedCallTimeout bounds one shared upstream embed call.
	DefaultEmbedCallTimeout = 10 * time.Second
)

// embeddingCache memoizes embeddings of submitted answers. Concurrent misses
// for the same text share one upstream call. The shared call is detached from
// any single caller's cancellation; each caller stops waiting on its own ctx.
type embeddingCache struct {
	embedder    scoring.Embedder
	entries     *lru.Cache[string, []float32]
	group       singleflight.Group
	callTimeout time.Duration
}

func newEmbeddingCache(embedder scoring.Embedder, size int, callTimeout time.Duration) (*embeddingCache, error) {
	if size <= 0 {
		size = DefaultEmbeddingCacheSize
	}
	if callTimeout <= 0 {
		callTimeout = DefaultEmbedCallTimeout
	}
	entries, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &embeddingCache{embedder: embedder, entries: entries, callTimeout: callTimeout}, nil
}

func (c *embeddingCache) get(ctx context.Context, text string) ([]float32, error) {
	key := strings.TrimSpace(text)
	if vec, ok := c.entries.Get(key); ok {
		return vec, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()

		vecs, err := c.embedder.Embed(callCtx, key)
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("%w: expected 1 embedding, got %d", scoring.ErrInvalidResponse, len(vecs))
		}
		c.entries.Add(key, vecs[0])
		return vecs[0], nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]float32), nil
	}
}

func (c *embeddingCache) put(text string, vec []float32) {
	c.entries.Add(strings.TrimSpace(text), vec)
}
