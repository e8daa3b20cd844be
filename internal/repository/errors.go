package repository

import "errors"

// Common storage errors. Implementations map driver-specific failures
// (gorm.ErrRecordNotFound, MySQL error 1062) onto these so that services
// never depend on a concrete driver.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry indicates a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrPanelNotFound = ErrNotFound
	ErrPostNotFound  = ErrNotFound
)

// ErrCacheMiss is returned by Cache.Get when the key is absent. A miss is
// not a failure; callers fall through to the authoritative store.
var ErrCacheMiss = errors.New("repository: cache miss")
