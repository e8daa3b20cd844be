package repository

import (
	"context"

	"github.com/prlessa/My-Stickly-Notes/internal/domain"
)

// PostRepository defines storage operations for post rows.
type PostRepository interface {
	// ListByPanel returns all posts for a panel, newest first.
	ListByPanel(ctx context.Context, panelCode string) ([]domain.Post, error)

	// Save inserts a new post row.
	Save(ctx context.Context, post *domain.Post) error

	// UpdatePosition sets the post's x/y coordinates and returns the
	// updated row. Returns ErrPostNotFound when the id does not exist.
	UpdatePosition(ctx context.Context, id string, x, y int) (*domain.Post, error)

	// Delete removes a post. Returns ErrPostNotFound when absent.
	Delete(ctx context.Context, id string) error
}
