// Package memory is an embedded backend with the same contracts as the
// postgres one: identities are bound per connection and the ownership policy
// is enforced at the data-access boundary, not by callers. It backs tests and
// the BACKEND=memory mode.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
)

type Store struct {
	mu     sync.RWMutex
	wishes map[string]wish.Wish
	users  map[string]user.User // by id
	byName map[string]string    // name -> id
}

func NewStore() *Store {
	return &Store{
		wishes: make(map[string]wish.Wish),
		users:  make(map[string]user.User),
		byName: make(map[string]string),
	}
}

// Conn is a single shared connection over the store. It holds at most one
// identity binding; serialization of concurrent holders is the job of
// session.Exclusive, not of this type.
type Conn struct {
	store *Store

	mu    sync.Mutex
	ident *auth.Identity
}

func (s *Store) NewConn() *Conn {
	return &Conn{store: s}
}

func (c *Conn) Authenticate(ctx context.Context, id auth.Identity) error {
	c.mu.Lock()
	c.ident = &id
	c.mu.Unlock()
	return nil
}

func (c *Conn) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.ident = nil
	c.mu.Unlock()
	return nil
}

// Identity reports the current binding. Exposed so tests can assert the
// binding is cleared after a guard invocation.
func (c *Conn) Identity() (auth.Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ident == nil {
		return auth.Identity{}, false
	}

	return *c.ident, true
}

func (c *Conn) isAdmin() bool {
	for _, r := range c.ident.Roles {
		if r == string(user.RoleAdmin) {
			return true
		}
	}
	return false
}

// canAccess mirrors the schema policy: created_by = caller OR caller is Admin.
func (c *Conn) canAccess(w wish.Wish) bool {
	return w.CreatedBy == c.ident.UserID || c.isAdmin()
}

func (c *Conn) CreateWish(id *string, content string) (wish.Wish, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wid := uuid.NewString()

	if id != nil {
		wid = *id
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if _, exists := c.store.wishes[wid]; exists {
		return wish.Wish{}, wish.ErrConflict
	}

	now := time.Now().UTC()

	w := wish.Wish{
		ID:        wid,
		Content:   content,
		Status:    wish.StatusSubmitted,
		CreatedBy: c.ident.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.store.wishes[wid] = w

	return w, nil
}

func (c *Conn) GetWish(id string) *wish.Wish {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	w, ok := c.store.wishes[id]

	if !ok || !c.canAccess(w) {
		return nil
	}

	return &w
}

func (c *Conn) DeleteWish(id string) *wish.Wish {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	w, ok := c.store.wishes[id]

	if !ok || !c.canAccess(w) {
		return nil
	}

	delete(c.store.wishes, id)

	return &w
}

func (c *Conn) ProgressWish(id string) *wish.Wish {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	w, ok := c.store.wishes[id]

	if !ok || !c.canAccess(w) {
		return nil
	}

	next, ok := w.Status.Next()

	if !ok {
		// terminal state, idempotent no-op
		return nil
	}

	w.Status = next
	w.UpdatedAt = time.Now().UTC()
	c.store.wishes[id] = w

	return &w
}

func (c *Conn) ListWishes(withUsername bool) []wish.WithOwner {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	out := make([]wish.WithOwner, 0)

	for _, w := range c.store.wishes {
		if !c.canAccess(w) {
			continue
		}

		item := wish.WithOwner{Wish: w}

		if withUsername {
			if owner, ok := c.store.users[w.CreatedBy]; ok {
				name := owner.Name
				item.Username = &name
			}
		}

		out = append(out, item)
	}

	return out
}

// CurrentUser resolves the bound identity's user record.
func (c *Conn) CurrentUser() (user.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ident == nil {
		return user.User{}, false
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	u, ok := c.store.users[c.ident.UserID]

	return u, ok
}

// CreateUser and GetUserByName run on the store, not a connection:
// registration and login happen before any identity exists.

func (s *Store) CreateUser(name, passwordHash string, roles []user.Role) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return user.User{}, user.ErrNameTaken
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.byName[name] = u.ID

	return u, nil
}

func (s *Store) GetUserByName(name string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[name]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return s.users[id], nil
}
