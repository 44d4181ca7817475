// Package postgres provides a PostgreSQL implementation of
// directory.Directory. It uses pgx/v5 for connection pooling and
// bcrypt for password verification.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/peer"
	"github.com/pforte-dev/pforte/pkg/directory"
)

// dummyHash is compared against when no user row matches, keeping the
// cost of an unknown email indistinguishable from a wrong password.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0H1BCPOMO4kKTe2SiJGpM1kuTSW"

// Directory is a PostgreSQL-backed principal store.
type Directory struct {
	pool      *pgxpool.Pool
	allowlist *peer.Allowlist
}

// Ensure Directory implements directory.Directory at compile time.
var _ directory.Directory = (*Directory)(nil)

// New creates a new PostgreSQL directory with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Directory, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	d := &Directory{
		pool:      pool,
		allowlist: peer.NewAllowlist(cfg.Peers),
	}

	if cfg.MigrateOnStart {
		if err := d.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return d, nil
}

// Close releases the connection pool.
func (d *Directory) Close() {
	d.pool.Close()
}

// Login verifies the email/password pair against the users table.
func (d *Directory) Login(ctx context.Context, email, password string) (*auth.Principal, error) {
	var p auth.Principal
	var passwordHash []byte

	err := d.pool.QueryRow(ctx, `
		SELECT u.id, r.name, u.full_name, u.username, u.email,
		       COALESCE(u.gender, ''), COALESCE(u.picture, ''),
		       COALESCE(u.phone, ''), COALESCE(u.second_phone, ''),
		       COALESCE(u.location, ''), u.password_hash
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE lower(u.email) = lower($1) AND u.deleted_at IS NULL
	`, strings.TrimSpace(email)).Scan(
		&p.ID, &p.Role, &p.FullName, &p.Username, &p.Email,
		&p.Gender, &p.Picture, &p.Phone, &p.SecondPhone,
		&p.Location, &passwordHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Burn a comparison so unknown emails cost the same as bad
			// passwords.
			bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, directory.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(passwordHash, []byte(password)); err != nil {
		return nil, directory.ErrInvalidCredentials
	}

	return &p, nil
}

// Access resolves the principal's current role descriptor and
// permission set. The lookup is always live; token payloads are never
// consulted here.
func (d *Directory) Access(ctx context.Context, principalID string) (*auth.Access, error) {
	var role auth.Role
	err := d.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.color
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1 AND u.deleted_at IS NULL
	`, principalID).Scan(&role.ID, &role.Name, &role.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, fmt.Errorf("querying role: %w", err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT p.subject || ':' || p.action
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY 1
	`, role.ID)
	if err != nil {
		return nil, fmt.Errorf("querying permissions: %w", err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	return &auth.Access{Role: role, Permissions: perms}, nil
}

// Roles lists all role descriptors.
func (d *Directory) Roles(ctx context.Context) ([]auth.Role, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, color FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying roles: %w", err)
	}
	defer rows.Close()

	var roles []auth.Role
	for rows.Next() {
		var r auth.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Color); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

// AuthorizePeer validates a server credential pair against the
// configured allowlist.
func (d *Directory) AuthorizePeer(ctx context.Context, ip, token string) error {
	return d.allowlist.AuthorizePeer(ctx, ip, token)
}

// Ping reports database reachability.
func (d *Directory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// CreateUser inserts a principal with a bcrypt-hashed password. Used
// for seeding and by the integration tests.
func (d *Directory) CreateUser(ctx context.Context, p auth.Principal, password, roleName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO users (id, role_id, full_name, username, email, gender,
		                   picture, phone, second_phone, location, password_hash)
		SELECT $1, r.id, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''),
		       NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10
		FROM roles r WHERE r.name = $11
	`, p.ID, p.FullName, p.Username, p.Email, p.Gender,
		p.Picture, p.Phone, p.SecondPhone, p.Location, hash, roleName)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// CreateRole inserts a role and grants it the given permissions.
func (d *Directory) CreateRole(ctx context.Context, role auth.Role, permissions []string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO roles (id, name, color) VALUES ($1, $2, $3)`,
		role.ID, role.Name, role.Color,
	); err != nil {
		return fmt.Errorf("inserting role: %w", err)
	}

	for _, perm := range permissions {
		subject, action, ok := strings.Cut(perm, ":")
		if !ok {
			return fmt.Errorf("malformed permission %q", perm)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, p.id FROM permissions p
			WHERE p.subject = $2 AND p.action = $3
		`, role.ID, subject, action); err != nil {
			return fmt.Errorf("granting %q: %w", perm, err)
		}
	}

	return tx.Commit(ctx)
}
