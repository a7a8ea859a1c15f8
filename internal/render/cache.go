package render

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize is the capacity of a Cache built with a non-positive size.
const DefaultCacheSize = 128

// Cache memoizes successful compilations of identical documents and
// collapses concurrent requests for the same document into one call.
// Failures are never cached.
type Cache struct {
	next  Compiler
	lru   *lru.Cache[string, []byte]
	group singleflight.Group
}

// NewCache wraps next with a bounded LRU cache.
func NewCache(next Compiler, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("creating render cache: %w", err)
	}
	return &Cache{next: next, lru: l}, nil
}

// Compile implements Compiler.
func (c *Cache) Compile(ctx context.Context, source string) ([]byte, error) {
	sum := sha256.Sum256([]byte(source))
	key := hex.EncodeToString(sum[:])

	if svg, ok := c.lru.Get(key); ok {
		return svg, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The shared compile outlives any single caller; the compiler's own
	// timeout bounds it. Each caller still returns on its own cancellation.
	ch := c.group.DoChan(key, func() (any, error) {
		svg, err := c.next.Compile(context.WithoutCancel(ctx), source)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, svg)
		return svg, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Evict drops the least recently used entries until at most keep remain
// and returns how many were dropped.
func (c *Cache) Evict(keep int) int {
	if keep < 0 {
		keep = 0
	}
	removed := 0
	for c.lru.Len() > keep {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		removed++
	}
	return removed
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.lru.Len()
}
