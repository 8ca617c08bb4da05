package service

import (
	"time"

	"jetton-ticket-tracker/internal/domain/entity"
)

// SnapshotPublisher defines the interface for broadcasting refresh results
// to downstream consumers. Publication is best effort; failures must never
// fail the refresh that produced the snapshot.
type SnapshotPublisher interface {
	// PublishRefresh announces a freshly published snapshot.
	PublishRefresh(snapshot *entity.AggregateSnapshot, capturedAt time.Time) error
}
