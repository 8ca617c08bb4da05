package cache

import (
	"sync"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
	"jetton-ticket-tracker/internal/domain/repository"
)

// SnapshotCache holds the latest published aggregate snapshot. Single
// writer (the refresh scheduler), many readers (the query path). Publish
// replaces the whole value; a snapshot is never mutated after publication.
type SnapshotCache struct {
	mu         sync.RWMutex
	snapshot   *entity.AggregateSnapshot
	capturedAt time.Time
}

// NewSnapshotCache creates an empty snapshot cache
func NewSnapshotCache() repository.SnapshotStore {
	return &SnapshotCache{}
}

// Publish atomically replaces the current snapshot and capture timestamp.
func (c *SnapshotCache) Publish(snapshot *entity.AggregateSnapshot, capturedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.capturedAt = capturedAt
}

// Latest returns the currently published snapshot, or ErrNotReady when no
// refresh has ever completed.
func (c *SnapshotCache) Latest() (*entity.AggregateSnapshot, time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return nil, time.Time{}, repository.ErrNotReady
	}
	return c.snapshot, c.capturedAt, nil
}
