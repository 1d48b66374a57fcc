package types

import "errors"

// Store is the local persistence used by the client: the session token, the
// cached profile, and recent position fixes. Callers attach, use, and detach.
type Store interface {
	// Attach opens the store described by config, creating DataDir if needed.
	// Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases resources. Idempotent. After Detach, operations return
	// ErrStoreDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity and input errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidStatus = errors.New("invalid status value")
	ErrInvalidRadius = errors.New("radius must not be negative")
	ErrInvalidTitle  = errors.New("title is required")
	ErrNotCreator    = errors.New("only the task creator can reassign it")
	ErrNotLoggedIn   = errors.New("not logged in")
)
