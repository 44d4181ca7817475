// Package memory provides an in-memory directory for development and
// tests. Data is seeded at construction; the store is read-only
// afterwards and safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/peer"
	"github.com/pforte-dev/pforte/pkg/directory"
)

// User seeds one principal into the directory.
type User struct {
	Principal auth.Principal
	Password  string // plaintext; hashed at construction
	RoleName  string
}

// RoleSeed seeds one role with its permission set.
type RoleSeed struct {
	Role        auth.Role
	Permissions []string
}

// Directory is the in-memory implementation of directory.Directory.
type Directory struct {
	usersByEmail map[string]*record
	usersByID    map[string]*record
	roles        map[string]RoleSeed // by role name
	allowlist    *peer.Allowlist
}

type record struct {
	principal    auth.Principal
	passwordHash []byte
	roleName     string
}

// Ensure Directory implements directory.Directory at compile time.
var _ directory.Directory = (*Directory)(nil)

// New builds a directory from seeds. User IDs are generated when absent.
func New(roles []RoleSeed, users []User, peers []peer.Credential) (*Directory, error) {
	d := &Directory{
		usersByEmail: make(map[string]*record, len(users)),
		usersByID:    make(map[string]*record, len(users)),
		roles:        make(map[string]RoleSeed, len(roles)),
		allowlist:    peer.NewAllowlist(peers),
	}

	for _, r := range roles {
		if r.Role.ID == "" {
			r.Role.ID = uuid.NewString()
		}
		d.roles[r.Role.Name] = r
	}

	for _, u := range users {
		if _, ok := d.roles[u.RoleName]; !ok {
			return nil, fmt.Errorf("memory directory: user %q references unknown role %q", u.Principal.Email, u.RoleName)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %q: %w", u.Principal.Email, err)
		}
		p := u.Principal
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.Role = u.RoleName
		rec := &record{principal: p, passwordHash: hash, roleName: u.RoleName}
		d.usersByEmail[strings.ToLower(p.Email)] = rec
		d.usersByID[p.ID] = rec
	}

	return d, nil
}

// Login verifies the email/password pair.
func (d *Directory) Login(_ context.Context, email, password string) (*auth.Principal, error) {
	rec, ok := d.usersByEmail[strings.ToLower(email)]
	if !ok {
		// Burn a comparison so unknown emails cost the same as bad
		// passwords.
		bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0H1BCPOMO4kKTe2SiJGpM1kuTSW"), []byte(password))
		return nil, directory.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		return nil, directory.ErrInvalidCredentials
	}
	p := rec.principal
	return &p, nil
}

// Access resolves the current role descriptor and permission set.
func (d *Directory) Access(_ context.Context, principalID string) (*auth.Access, error) {
	rec, ok := d.usersByID[principalID]
	if !ok {
		return nil, directory.ErrNotFound
	}
	seed, ok := d.roles[rec.roleName]
	if !ok {
		return nil, directory.ErrNotFound
	}
	perms := make([]string, len(seed.Permissions))
	copy(perms, seed.Permissions)
	return &auth.Access{Role: seed.Role, Permissions: perms}, nil
}

// Roles lists all role descriptors.
func (d *Directory) Roles(_ context.Context) ([]auth.Role, error) {
	roles := make([]auth.Role, 0, len(d.roles))
	for _, seed := range d.roles {
		roles = append(roles, seed.Role)
	}
	return roles, nil
}

// AuthorizePeer validates a server credential pair against the
// configured allowlist.
func (d *Directory) AuthorizePeer(ctx context.Context, ip, token string) error {
	return d.allowlist.AuthorizePeer(ctx, ip, token)
}

// Ping always succeeds for the in-memory store.
func (d *Directory) Ping(context.Context) error {
	return nil
}
