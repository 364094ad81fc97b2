package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

// UsersRepo serves the identity service. Create and GetByName run on the pool
// because registration and login happen before any identity is bound; Self
// runs on the session's bound connection.
type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

func (r *UsersRepo) Create(ctx context.Context, name, passwordHash string, roles []user.Role) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, password_hash, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.PasswordHash, user.RoleStrings(u.Roles), u.CreatedAt, u.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, user.ErrNameTaken
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByName(ctx context.Context, name string) (user.User, error) {
	var (
		u     user.User
		roles []string
	)

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, password_hash, roles, created_at, updated_at
		 FROM users
		 WHERE name = $1`,
		name,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.Roles = user.RolesFromStrings(roles)

	return u, nil
}

// Self resolves the user the session is bound to.
func (r *UsersRepo) Self(ctx context.Context, s *session.Session) (user.User, error) {
	q, err := querier(s)

	if err != nil {
		return user.User{}, err
	}

	var (
		u     user.User
		roles []string
	)

	err = q.QueryRow(ctx,
		`SELECT id, name, password_hash, roles, created_at, updated_at
		 FROM users
		 WHERE id = NULLIF(current_setting('wishes.user_id', true), '')::uuid`,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &roles, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.Roles = user.RolesFromStrings(roles)

	return u, nil
}
