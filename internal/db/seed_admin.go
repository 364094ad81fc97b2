package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarlinZapp/wishes-server/internal/config"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/security"
	"github.com/MarlinZapp/wishes-server/internal/store/postgres"
)

// EnsureAdminUser bootstraps an Admin identity from config. Registration
// through the API can never grant Admin, so this is the only way in.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminName == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE name = $1`, cfg.AdminName).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	users := postgres.NewUsersRepo(pool)

	_, err = users.Create(ctx, cfg.AdminName, hash, []user.Role{user.RoleDefault, user.RoleAdmin})

	return err
}
