package domain

import "errors"

// Errors surfaced by the booking core. Callers match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrFlightNotBookable    = errors.New("flight is not available for booking")
	ErrNoSeatsAvailable     = errors.New("no seats available for the selected class")
	ErrConcurrencyConflict  = errors.New("concurrency conflict, retry the operation")
	ErrIdentifierExhaustion = errors.New("could not generate a unique booking identifier")
	ErrInvariantViolation   = errors.New("inventory invariant violated")
	ErrNotCancellable       = errors.New("booking cannot be cancelled")
)
