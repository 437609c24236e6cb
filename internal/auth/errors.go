package auth

import "errors"

var (
	// ErrNotAuthenticated is returned when an operation needs a logged
	// in user and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoCachedToken is returned when no token cache exists on disk.
	ErrNoCachedToken = errors.New("no cached token")
)
