package matching

import "errors"

// Failure taxonomy for the matching and acceptance flow. Handlers map
// these onto HTTP status codes; anything else is a storage failure and
// is propagated wrapped.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("not authorized for this entry")
	ErrAlreadyClaimed   = errors.New("request already claimed by another provider")
	ErrExpired          = errors.New("request has expired")
	ErrNotMatched       = errors.New("provider is not in the request's matched set")
	ErrCapacityExceeded = errors.New("provider has no capacity for this slot")
	ErrScheduleConflict = errors.New("provider already has a booking at this time")
)
