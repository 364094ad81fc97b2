package memory

import (
	"context"
	"fmt"

	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

func conn(s *session.Session) (*Conn, error) {
	c, ok := s.Conn.(*Conn)

	if !ok {
		return nil, fmt.Errorf("session connection is not a memory connection")
	}

	return c, nil
}

// WishStore adapts Conn to the store contract the handlers consume.
type WishStore struct{}

func NewWishStore() *WishStore {
	return &WishStore{}
}

func (r *WishStore) Create(ctx context.Context, s *session.Session, id *string, content string) (wish.Wish, error) {
	c, err := conn(s)

	if err != nil {
		return wish.Wish{}, err
	}

	return c.CreateWish(id, content)
}

func (r *WishStore) Get(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	c, err := conn(s)

	if err != nil {
		return nil, err
	}

	return c.GetWish(id), nil
}

func (r *WishStore) Delete(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	c, err := conn(s)

	if err != nil {
		return nil, err
	}

	return c.DeleteWish(id), nil
}

func (r *WishStore) Progress(ctx context.Context, s *session.Session, id string) (*wish.Wish, error) {
	c, err := conn(s)

	if err != nil {
		return nil, err
	}

	return c.ProgressWish(id), nil
}

func (r *WishStore) List(ctx context.Context, s *session.Session, withUsername bool) ([]wish.WithOwner, error) {
	c, err := conn(s)

	if err != nil {
		return nil, err
	}

	return c.ListWishes(withUsername), nil
}

// UsersRepo adapts the store to the identity service contract.
type UsersRepo struct {
	store *Store
}

func NewUsersRepo(store *Store) *UsersRepo {
	return &UsersRepo{store: store}
}

func (r *UsersRepo) Create(ctx context.Context, name, passwordHash string, roles []user.Role) (user.User, error) {
	return r.store.CreateUser(name, passwordHash, roles)
}

func (r *UsersRepo) GetByName(ctx context.Context, name string) (user.User, error) {
	return r.store.GetUserByName(name)
}

func (r *UsersRepo) Self(ctx context.Context, s *session.Session) (user.User, error) {
	c, err := conn(s)

	if err != nil {
		return user.User{}, err
	}

	u, ok := c.CurrentUser()

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}
