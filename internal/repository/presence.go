package repository

import (
	"context"
	"time"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// PresenceRepository defines storage operations for the active-user
// roster. The (panel, name) pair is unique; Upsert relies on that
// constraint rather than a read-modify-write cycle.
type PresenceRepository interface {
	// Upsert inserts a presence row or, when the (panel, name) pair
	// already exists, refreshes its last-seen timestamp.
	Upsert(ctx context.Context, panelCode, name string) error

	// ListActive returns participants whose last-seen is after the
	// cutoff, ordered by join time.
	ListActive(ctx context.Context, panelCode string, seenAfter time.Time) ([]domain.Presence, error)

	// CountActive counts participants seen after the cutoff.
	CountActive(ctx context.Context, panelCode string, seenAfter time.Time) (int64, error)

	// Exists reports whether the participant has a row seen after the
	// cutoff. Used for idempotent re-admission of present members.
	Exists(ctx context.Context, panelCode, name string, seenAfter time.Time) (bool, error)

	// Delete removes one participant's row. Absent rows are not an error.
	Delete(ctx context.Context, panelCode, name string) error

	// DeleteSeenBefore removes every row, across all panels, whose
	// last-seen predates the cutoff. Returns the number of rows removed.
	DeleteSeenBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
