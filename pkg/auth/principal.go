package auth

import "context"

// Principal is the authenticated identity carried through a request.
// It is decoded from the access token (or rebuilt from the refresh token
// during a sliding renewal) and is immutable once attached to the request
// context. Lifetime is a single request.
type Principal struct {
	// ID is the unique identifier (required, non-empty).
	ID string `json:"id"`

	// Role is the role label as carried by the credential. It may be a
	// raw string assigned at login time; authorization never trusts it
	// and resolves the current role from the directory instead.
	Role string `json:"role"`

	FullName    string `json:"full_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Gender      string `json:"gender,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Phone       string `json:"phone,omitempty"`
	SecondPhone string `json:"second_phone,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Role is a resolved role descriptor: a named, colored label.
type Role struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Access is the authorization-grade view of a principal: the role
// descriptor and permission set resolved live from the directory at
// guard time. It is produced only by the Guard and attached to the
// context alongside the Principal, never merged into it.
type Access struct {
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the permission set contains perm.
func (a *Access) HasPermission(perm string) bool {
	for _, p := range a.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// AccessResolver resolves the current role and permission set for a
// principal by ID. Implemented by the directory; the Guard depends on
// this narrow interface so it stays independent of any concrete store.
type AccessResolver interface {
	Access(ctx context.Context, principalID string) (*Access, error)
}
