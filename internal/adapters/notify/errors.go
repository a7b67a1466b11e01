package notify

import "errors"

// Sentinel kinds for notification errors.
var (
	ErrNotConnected = errors.New("channel not connected")
)
