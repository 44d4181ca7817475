package auth

import "errors"

// Sentinel errors.
var (
	// ErrNotAuthenticated is returned when no live session credential is
	// present: a missing, malformed, or expired token, or a valid access
	// token without a valid refresh token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAccessDenied is returned when an authenticated principal does
	// not satisfy a route's role or permission constraints. Directory
	// failures during authorization are reported as ErrAccessDenied as
	// well, so internal failures are not disclosed to callers.
	ErrAccessDenied = errors.New("access denied")
)
