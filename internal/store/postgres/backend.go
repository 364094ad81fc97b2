// Package postgres is the production backend. Ownership gating lives in the
// database: the wishes table carries row-level security keyed on the
// per-connection settings the session guard binds and clears.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

// Querier is the query surface repos need from a bound connection.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Backend checks a dedicated connection out of the pool for each guard
// invocation, so no two requests ever share an authentication binding.
type Backend struct {
	pool *pgxpool.Pool
}

func NewBackend(pool *pgxpool.Pool) *Backend {
	return &Backend{pool: pool}
}

func (b *Backend) Acquire(ctx context.Context) (session.Conn, func(), error) {
	c, err := b.pool.Acquire(ctx)

	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", session.ErrBackendUnavailable, err)
	}

	return &Conn{conn: c}, c.Release, nil
}

// Conn binds an identity to the underlying connection via session-local
// settings. The RLS policies read them back with current_setting.
type Conn struct {
	conn *pgxpool.Conn
}

func (c *Conn) Authenticate(ctx context.Context, id auth.Identity) error {
	_, err := c.conn.Exec(ctx,
		`SELECT set_config('wishes.user_id', $1, false), set_config('wishes.roles', $2, false)`,
		id.UserID, strings.Join(id.Roles, ","),
	)

	if err != nil {
		return fmt.Errorf("%w: bind identity: %v", session.ErrBackendUnavailable, err)
	}

	return nil
}

func (c *Conn) Invalidate(ctx context.Context) error {
	// Must clear before the connection goes back to the pool, otherwise the
	// next checkout would inherit this identity.
	_, err := c.conn.Exec(ctx,
		`SELECT set_config('wishes.user_id', '', false), set_config('wishes.roles', '', false)`,
	)

	return err
}

func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

// querier unwraps the session's connection for repo use.
func querier(s *session.Session) (Querier, error) {
	q, ok := s.Conn.(Querier)

	if !ok {
		return nil, fmt.Errorf("session connection is not a postgres connection")
	}

	return q, nil
}
