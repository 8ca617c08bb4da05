package repository

import (
	"errors"
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
)

// ErrNotReady is returned by Latest before the first refresh has completed.
// It is surfaced to the query caller and is not a failure condition.
var ErrNotReady = errors.New("aggregate snapshot not ready yet")

// SnapshotStore defines the interface for the single-value snapshot cache.
// One writer (the scheduler) replaces the value wholesale; many readers
// (the query path) observe only fully published snapshots.
type SnapshotStore interface {
	// Publish atomically replaces the current snapshot and its capture
	// timestamp.
	Publish(snapshot *entity.AggregateSnapshot, capturedAt time.Time)

	// Latest returns the currently published snapshot and its capture
	// timestamp, or ErrNotReady when no refresh has ever completed.
	Latest() (*entity.AggregateSnapshot, time.Time, error)
}
