// Package token implements the credential codec: issuing and verifying
// the two signed, time-bounded token kinds (access, refresh) that carry
// a principal payload.
//
// Tokens are HS256 JWTs embedding the full principal profile, so plain
// authentication never needs a store round-trip. Verification is a pure
// function of the token bytes and the configured secret and TTL; it
// returns an error on any malformed, mis-signed, or expired token and
// never panics.
package token

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/pforte-dev/pforte/pkg/auth"
)

// Kind selects the signing secret and time-to-live of a token.
type Kind int

const (
	// Access is the short-lived credential verified on every protected
	// request.
	Access Kind = iota

	// Refresh is the longer-lived credential used solely to mint new
	// access tokens.
	Refresh
)

// String returns the kind name for logging.
func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

// ErrInvalid is returned by Verify for any token that cannot be
// accepted: malformed bytes, signature mismatch, or expiry. Callers
// must not distinguish the cases; all of them mean "not authenticated".
var ErrInvalid = errors.New("invalid token")

// Config holds the codec secrets and lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration // default: 15 minutes
	RefreshTTL    time.Duration // default: 30 days
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.AccessTTL == 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 30 * 24 * time.Hour
	}
}

// Codec issues and verifies signed principal-bearing tokens.
// It is stateless and safe for concurrent use.
type Codec struct {
	config Config

	// now is injectable for expiry tests.
	now func() time.Time
}

// New creates a codec with the given configuration.
func New(cfg Config) (*Codec, error) {
	cfg.applyDefaults()
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, fmt.Errorf("token: access and refresh secrets are required")
	}
	return &Codec{config: cfg, now: time.Now}, nil
}

// claims is the JWT payload: the principal profile plus the standard
// time-bound claims.
type claims struct {
	Principal auth.Principal `json:"principal"`
	jwtlib.RegisteredClaims
}

// Issue signs a new token of the given kind embedding the principal.
func (c *Codec) Issue(kind Kind, p auth.Principal) (string, error) {
	if p.ID == "" {
		return "", fmt.Errorf("token: principal ID is required")
	}

	secret, ttl := c.material(kind)
	now := c.now()

	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims{
		Principal: p,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token of the given kind
// and returns the embedded principal. Any failure is reported as
// ErrInvalid (wrapped with detail for logging).
func (c *Codec) Verify(kind Kind, tokenStr string) (*auth.Principal, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalid)
	}

	secret, _ := c.material(kind)

	var cl claims
	tok, err := jwtlib.ParseWithClaims(tokenStr, &cl, func(t *jwtlib.Token) (interface{}, error) {
		return secret, nil
	},
		jwtlib.WithValidMethods([]string{"HS256"}),
		jwtlib.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !tok.Valid {
		return nil, ErrInvalid
	}
	if cl.Principal.ID == "" {
		return nil, fmt.Errorf("%w: missing principal", ErrInvalid)
	}

	p := cl.Principal
	return &p, nil
}

// TTL returns the configured lifetime for the given kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	_, ttl := c.material(kind)
	return ttl
}

// material returns the secret and TTL for a kind.
func (c *Codec) material(kind Kind) ([]byte, time.Duration) {
	if kind == Refresh {
		return c.config.RefreshSecret, c.config.RefreshTTL
	}
	return c.config.AccessSecret, c.config.AccessTTL
}
