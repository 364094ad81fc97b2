package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

const uniqueViolation = "23505"

// WishesRepo runs every statement on the session's bound connection. It never
// filters by caller identity itself: row-level security already collapsed
// "absent" and "present but not yours" into empty results, and created_by is
// a column default taken from the binding.
type WishesRepo struct{}

func NewWishesRepo() *WishesRepo {
	return &WishesRepo{}
}

func (r *WishesRepo) Create(ctx context.Context, s *session.Session, id *string, content string) (wish.Wish, error) {
	q, err := querier(s)

	if err != nil {
		return wish.Wish{}, err
	}

	wid := uuid.NewString()

	if id != nil {
		wid = *id
	}

	var w wish.Wish

	err = q.QueryRow(ctx,
		`INSERT INTO wishes (id, content, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, content, status, created_by, created_at, updated_at`,
		wid, content, wish.StatusSubmitted,
	).Scan(&w.ID, &w.Content, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError

		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return wish.Wish{}, wish.ErrConflict
		}

		return wish.Wish{}, err
	}

	return w, nil
}

func (r *WishesRepo) Get(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	q, err := querier(s)

	if err != nil {
		return nil, err
	}

	var w wish.Wish

	err = q.QueryRow(ctx,
		`SELECT id, content, status, created_by, created_at, updated_at
		 FROM wishes
		 WHERE id = $1`,
		id,
	).Scan(&w.ID, &w.Content, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &w, nil
}

func (r *WishesRepo) Delete(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	q, err := querier(s)

	if err != nil {
		return nil, err
	}

	var w wish.Wish

	err = q.QueryRow(ctx,
		`DELETE FROM wishes
		 WHERE id = $1
		 RETURNING id, content, status, created_by, created_at, updated_at`,
		id,
	).Scan(&w.ID, &w.Content, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &w, nil
}

// Progress advances the status exactly one step in a single statement, so two
// concurrent calls on the same id serialize at the row. Absent, unauthorized
// and terminal all come back as no row, hence nil.
func (r *WishesRepo) Progress(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	q, err := querier(s)

	if err != nil {
		return nil, err
	}

	var w wish.Wish

	err = q.QueryRow(ctx,
		`UPDATE wishes
		 SET status = CASE status
		     WHEN 'Submitted' THEN 'CreationInProgress'
		     WHEN 'CreationInProgress' THEN 'InDelivery'
		     WHEN 'InDelivery' THEN 'Delivered'
		 END,
		     updated_at = NOW()
		 WHERE id = $1 AND status <> 'Delivered'
		 RETURNING id, content, status, created_by, created_at, updated_at`,
		id,
	).Scan(&w.ID, &w.Content, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &w, nil
}

func (r *WishesRepo) List(ctx context.Context, s *session.Session, withUsername bool) ([]wish.WithOwner, error) {
	q, err := querier(s)

	if err != nil {
		return nil, err
	}

	query := `SELECT w.id, w.content, w.status, w.created_by, w.created_at, w.updated_at, NULL::text
		 FROM wishes w`

	if withUsername {
		query = `SELECT w.id, w.content, w.status, w.created_by, w.created_at, w.updated_at, u.name
		 FROM wishes w
		 LEFT JOIN users u ON u.id = w.created_by`
	}

	rows, err := q.Query(ctx, query)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]wish.WithOwner, 0)

	for rows.Next() {
		var w wish.WithOwner

		err = rows.Scan(&w.ID, &w.Content, &w.Status, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt, &w.Username)

		if err != nil {
			return nil, err
		}

		output = append(output, w)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}
