package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the schema created by the bundled migrations.
const DefaultSchema = "contactbook"

// PostgresStore implements Store over PostgreSQL.
//
// The pool is owned by the caller and is never closed here. Schema and table
// identifiers are quoted with pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
	users  string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the users table (default "contactbook").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("identity: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	st.users = pgx.Identifier{st.schema, "users"}.Sanitize()
	return st, nil
}

const identityColumns = `id, email, username, password_hash, confirmed, refresh_token_hash, avatar_url, created_at, updated_at`

func scanIdentity(row pgx.Row) (Identity, error) {
	var u Identity
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Confirmed,
		&u.RefreshTokenHash,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// FindByEmail implements Store.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	const op = "identity.FindByEmail"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	u, err := scanIdentity(s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM `+s.users+` WHERE email = $1`,
		NormalizeEmail(email),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, NotFoundError{Op: op, Key: "email"}
	}
	if err != nil {
		return Identity{}, err
	}
	return u, nil
}

// FindByID implements Store.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (Identity, error) {
	const op = "identity.FindByID"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	u, err := scanIdentity(s.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM `+s.users+` WHERE id = $1`,
		strings.TrimSpace(id),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{}, NotFoundError{Op: op, Key: "id"}
	}
	if err != nil {
		return Identity{}, err
	}
	return u, nil
}

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Identity, error) {
	const op = "identity.Create"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	in, err := in.validate(op)
	if err != nil {
		return Identity{}, err
	}

	id, err := NewULID(in.Now)
	if err != nil {
		return Identity{}, err
	}

	u, err := scanIdentity(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.users+` (
		     id, email, username, password_hash, confirmed, refresh_token_hash, avatar_url, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, FALSE, NULL, $5, $6, $6)
		 RETURNING `+identityColumns,
		id, in.Email, in.Username, in.PasswordHash, in.AvatarURL, in.Now,
	))
	if err != nil {
		if field, ok := pgUniqueViolation(err); ok {
			return Identity{}, ConflictError{Op: op, Field: field}
		}
		return Identity{}, err
	}
	return u, nil
}

// SetRefreshToken implements Store as a single conditional UPDATE.
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id string, next, expectedPrior *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+s.users+`
		    SET refresh_token_hash = $2,
		        updated_at = now()
		  WHERE id = $1
		    AND refresh_token_hash IS NOT DISTINCT FROM $3::text`,
		id, next, expectedPrior,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// MarkConfirmed implements Store.
func (s *PostgresStore) MarkConfirmed(ctx context.Context, id string) (bool, error) {
	const op = "identity.MarkConfirmed"
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var flipped, exists bool
	err := s.pool.QueryRow(ctx,
		`WITH upd AS (
		     UPDATE `+s.users+`
		        SET confirmed = TRUE,
		            updated_at = now()
		      WHERE id = $1
		        AND NOT confirmed
		  RETURNING id
		 )
		 SELECT EXISTS (SELECT 1 FROM upd),
		        EXISTS (SELECT 1 FROM `+s.users+` WHERE id = $1)`,
		id,
	).Scan(&flipped, &exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, NotFoundError{Op: op, Key: "id"}
	}
	return flipped, nil
}

// UpdatePasswordHash implements Store.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const op = "identity.UpdatePasswordHash"
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(hash) == "" {
		return invalid(op, "password hash is required")
	}

	ct, err := s.pool.Exec(ctx,
		`UPDATE `+s.users+` SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Key: "id"}
	}
	return nil
}

func pgUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	c := strings.ToLower(pgErr.ConstraintName)
	switch {
	case c == "uq_users_email", strings.Contains(c, "email"):
		return "email", true
	case c == "users_pkey":
		return "id", true
	default:
		return "", true
	}
}
