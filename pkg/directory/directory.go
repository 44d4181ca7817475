// Package directory defines the principal store boundary: the external
// collaborator that resolves a principal's current role and permission
// set, verifies login credentials, and validates server-to-server
// credential pairs.
//
// The gates treat the directory as a potentially remote, potentially
// slow dependency. It has no internal timeout or retry; a slow or
// failing lookup surfaces as an error that the guard converts to a
// deny.
package directory

import (
	"context"
	"errors"

	"github.com/pforte-dev/pforte/pkg/auth"
)

// Sentinel errors.
var (
	// ErrInvalidCredentials is returned by Login when the email/password
	// pair does not match a stored principal.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when a principal or role does not exist.
	ErrNotFound = errors.New("not found")
)

// Directory resolves principals and their authorization-grade data.
// Implementations must be safe for concurrent use.
type Directory interface {
	auth.AccessResolver

	// Login verifies an email/password pair and returns the principal
	// with its role label. Returns ErrInvalidCredentials on mismatch.
	Login(ctx context.Context, email, password string) (*auth.Principal, error)

	// Roles lists all role descriptors.
	Roles(ctx context.Context) ([]auth.Role, error)

	// AuthorizePeer validates a server-to-server (IP, token) pair
	// against the trusted-caller allowlist.
	AuthorizePeer(ctx context.Context, ip, token string) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
