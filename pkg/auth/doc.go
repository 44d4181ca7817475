// Package auth holds the identity model and the authorization gate of
// the pforte boundary.
//
// Principal is the token-borne identity; Access is the live role and
// permission set a directory resolves for it. The guard gate (Guard)
// enforces per-route role and permission constraints against that live
// lookup, never the token payload. The route Classifier decides which
// paths bypass the session gate, which lives in the session subpackage.
//
// All gates fail closed: any inconclusive verification or directory
// failure denies the request.
package auth
