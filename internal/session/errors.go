package session

import "errors"

var (
	// ErrNotConnected is returned when a session operation requires a
	// live stream connection and none is available.
	ErrNotConnected = errors.New("not connected")

	// ErrSessionActive is returned when starting a session while one is
	// already running.
	ErrSessionActive = errors.New("session already active")
)
