package repository

import "errors"

// Sentinel kinds for event store errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidLimit = errors.New("invalid query limit")
)
