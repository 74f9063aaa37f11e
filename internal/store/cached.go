package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRegistry memoizes version lists per machine name. Inserts through
// it invalidate the affected name; writes made by other processes are not
// seen until the entry is evicted.
type CachedRegistry struct {
	Registry
	cache *lru.Cache[string, []Library]
}

func NewCachedRegistry(r Registry, size int) (*CachedRegistry, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, []Library](size)
	if err != nil {
		return nil, fmt.Errorf("init library cache: %w", err)
	}
	return &CachedRegistry{Registry: r, cache: cache}, nil
}

func (c *CachedRegistry) Versions(ctx context.Context, machineName string) ([]Library, error) {
	if libs, ok := c.cache.Get(machineName); ok {
		return append([]Library(nil), libs...), nil
	}
	libs, err := c.Registry.Versions(ctx, machineName)
	if err != nil {
		return nil, err
	}
	c.cache.Add(machineName, append([]Library(nil), libs...))
	return libs, nil
}

func (c *CachedRegistry) InsertLibrary(ctx context.Context, lib Library) (int64, error) {
	c.cache.Remove(lib.MachineName)
	return c.Registry.InsertLibrary(ctx, lib)
}
