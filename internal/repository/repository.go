// Package repository defines the data access interface for the roam-event
// history. The actual implementation is in the sqlite subpackage.
package repository

import (
	"context"
	"time"

	"wifiroamd/internal/domain"
)

// Repository persists roam events for offline inspection.
type Repository interface {
	// SaveEvent appends a roam event and fills in its ID.
	SaveEvent(ctx context.Context, event *domain.RoamEvent) error

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]domain.RoamEvent, error)

	// LastConnectEvent returns the most recent connect or switch event,
	// or nil if none exists.
	LastConnectEvent(ctx context.Context) (*domain.RoamEvent, error)

	// PruneBefore deletes events older than cutoff and returns the count.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources.
	Close() error
}
