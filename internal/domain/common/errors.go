package common

import "errors"

// Errors shared by every domain. Domain-specific variants wrap these so callers can
// match either the precise error or its family.
var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPastDateMutation  = errors.New("records dated before today cannot be changed")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")
)
