package authz

import "errors"

// Configuration errors surface during startup construction and abort boot.
var (
	// ErrDuplicateResource indicates a resource was registered twice.
	ErrDuplicateResource = errors.New("authz: duplicate resource")
	// ErrUnknownResource indicates a resource absent from the statement table.
	ErrUnknownResource = errors.New("authz: unknown resource")
	// ErrUnknownAction indicates an action not registered for its resource.
	ErrUnknownAction = errors.New("authz: unknown action")
	// ErrUnknownRole indicates a role name absent from the catalog.
	ErrUnknownRole = errors.New("authz: unknown role")
)

// Per-request decision errors. Never retried by this package.
var (
	// ErrUnauthenticated indicates no principal could be resolved.
	ErrUnauthenticated = errors.New("authz: unauthenticated")
	// ErrForbidden indicates the principal lacks a required permission.
	ErrForbidden = errors.New("authz: forbidden")
)
