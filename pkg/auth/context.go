package auth

import "context"

// principalKey is a private type for the principal context key.
type principalKey struct{}

// accessKey is a private type for the resolved access context key.
type accessKey struct{}

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal.
// Returns nil if no principal is set (unauthenticated or public route).
func PrincipalFromContext(ctx context.Context) *Principal {
	if v, ok := ctx.Value(principalKey{}).(*Principal); ok {
		return v
	}
	return nil
}

// WithAccess stores the resolved role and permission set in the context.
// Set by the Guard on an allow decision so downstream handlers can read
// the authorization-grade data without a second directory lookup.
func WithAccess(ctx context.Context, a *Access) context.Context {
	return context.WithValue(ctx, accessKey{}, a)
}

// AccessFromContext retrieves the resolved access. Returns nil when the
// request did not pass through a Guard.
func AccessFromContext(ctx context.Context) *Access {
	if v, ok := ctx.Value(accessKey{}).(*Access); ok {
		return v
	}
	return nil
}
