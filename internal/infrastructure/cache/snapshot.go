package cache

import (
	"sync/atomic"
	"time"

	"github.com/chemprice/backend/internal/domain"
)

// SnapshotCache holds the current product snapshot behind an atomic pointer.
// Publish builds a new snapshot and swaps it in; readers see either the old or the
// new list in full, never a mix.
type SnapshotCache struct {
	current atomic.Pointer[domain.Snapshot]
	version atomic.Uint64
	now     func() time.Time
}

// NewSnapshotCache creates a cache holding an empty version-0 snapshot
func NewSnapshotCache() *SnapshotCache {
	c := &SnapshotCache{now: time.Now}
	c.current.Store(&domain.Snapshot{Products: []domain.ProductRecord{}})
	return c
}

// Current returns the published snapshot. Callers must not modify it.
func (c *SnapshotCache) Current() *domain.Snapshot {
	return c.current.Load()
}

// Publish replaces the cached catalog with products and returns the new snapshot
func (c *SnapshotCache) Publish(products []domain.ProductRecord) *domain.Snapshot {
	if products == nil {
		products = []domain.ProductRecord{}
	}
	snap := &domain.Snapshot{
		Version:  c.version.Add(1),
		BuiltAt:  c.now(),
		Products: products,
	}
	c.current.Store(snap)
	return snap
}

// Size returns the number of products in the current snapshot
func (c *SnapshotCache) Size() int {
	return c.Current().Len()
}
