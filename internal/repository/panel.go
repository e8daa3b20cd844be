package repository

import (
	"context"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// PanelRepository defines storage operations for panel rows. The panel
// service is the only component that mutates them.
type PanelRepository interface {
	// FindByCode looks a panel up by its invite code.
	// Returns ErrPanelNotFound when no such panel exists.
	FindByCode(ctx context.Context, code string) (*domain.Panel, error)

	// Save inserts a new panel row. Returns ErrDuplicateEntry when the
	// code is already taken, so callers can regenerate and retry.
	Save(ctx context.Context, panel *domain.Panel) error

	// CodeExists reports whether a panel with the given code exists.
	CodeExists(ctx context.Context, code string) (bool, error)

	// TouchActivity bumps the panel's last-activity timestamp to now.
	TouchActivity(ctx context.Context, code string) error
}
