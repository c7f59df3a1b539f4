package domain

import "errors"

var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyReferred        = errors.New("customer already has a referrer at this restaurant")
	ErrConcurrentModification = errors.New("concurrent modification, retry the request")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrPermissionDenied       = errors.New("permission denied")

	// ErrAlreadyOffset is returned by the store when a second offset entry
	// references the same source ledger entry.
	ErrAlreadyOffset = errors.New("ledger entry already offset")
)
