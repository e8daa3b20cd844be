package service

import "errors"

// Business errors surfaced to handlers. Validation and domain errors are
// terminal and shown to the caller; ErrStoreUnavailable marks transient
// infrastructure failures that are safe to retry with backoff.
var (
	ErrMissingFields       = errors.New("name, variant and creator are required")
	ErrInvalidVariant      = errors.New("invalid panel variant")
	ErrContentRequired     = errors.New("content is required")
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidPosition     = errors.New("position must not be negative")
	ErrPanelNotFound       = errors.New("panel not found")
	ErrPostNotFound        = errors.New("post not found")
	ErrPasswordRequired    = errors.New("password required")
	ErrPasswordMismatch    = errors.New("incorrect password")
	ErrPanelFull           = errors.New("panel is full")
	ErrAnonymousNotAllowed = errors.New("anonymous posts are not allowed in couple panels")
	ErrStoreUnavailable    = errors.New("storage temporarily unavailable")
)
