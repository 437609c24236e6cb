package auth

import "devplanet/internal/apiclient"

// State is the authentication lifecycle state.
type State int

const (
	// StateAnonymous means no credentials are held.
	StateAnonymous State = iota

	// StateAuthenticating means a login is in flight.
	StateAuthenticating

	// StateAuthenticated means a bearer token is held.
	StateAuthenticated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Credentials pairs a bearer token with the account it belongs to.
type Credentials struct {
	AccessToken string         `json:"access_token"`
	User        apiclient.User `json:"user"`
	SavedAt     string         `json:"saved_at,omitempty"`
}

// maskTokenDisplayLen is how many leading token characters stay
// visible when masking for display.
const maskTokenDisplayLen = 8

// MaskToken returns a display-safe version of a token.
// Example: eyJhbGci****...****
func MaskToken(token string) string {
	if len(token) <= maskTokenDisplayLen {
		return "****"
	}
	return token[:maskTokenDisplayLen] + "****...****"
}
