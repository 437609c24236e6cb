package stream

import "errors"

var (
	// ErrNotConnected is returned when a frame is sent without a live
	// connection. Callers treat it as a guard, not a transient fault.
	ErrNotConnected = errors.New("not connected to analysis stream")

	// ErrMaxAttemptsReached signals that reconnection has been abandoned
	// after the configured number of consecutive failures.
	ErrMaxAttemptsReached = errors.New("max reconnect attempts reached")
)
