// Package identity issues credentials: registration, login and session
// introspection. It never hands out role escalation; every registration gets
// exactly the Default role.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/security"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

// ErrInvalidCredentials covers both unknown name and wrong password; callers
// must not be able to tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

type UsersRepo interface {
	Create(ctx context.Context, name, passwordHash string, roles []user.Role) (user.User, error)
	GetByName(ctx context.Context, name string) (user.User, error)
}

// SelfReader resolves the user a bound session authenticates as.
type SelfReader interface {
	Self(ctx context.Context, s *session.Session) (user.User, error)
}

// SessionInfo describes the backend session a credential is bound to.
type SessionInfo struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Describe renders the remaining-validity descriptor used by check/auth.
func (i SessionInfo) Describe() string {
	remaining := time.Until(i.ExpiresAt).Round(time.Second)

	if remaining <= 0 {
		return fmt.Sprintf("session for user %s has expired", i.UserID)
	}

	return fmt.Sprintf("session for user %s, valid for %s", i.UserID, remaining)
}

type Service struct {
	users  UsersRepo
	self   SelfReader
	tokens *auth.Manager
	guard  *session.Guard
}

func NewService(users UsersRepo, self SelfReader, tokens *auth.Manager, guard *session.Guard) *Service {
	return &Service{
		users:  users,
		self:   self,
		tokens: tokens,
		guard:  guard,
	}
}

// Register creates an identity with the Default role and returns a fresh
// credential for it. Duplicate names surface as user.ErrNameTaken.
func (s *Service) Register(ctx context.Context, name, pass string) (string, error) {
	hash, err := security.HashPassword(pass)

	if err != nil {
		return "", err
	}

	u, err := s.users.Create(ctx, name, hash, []user.Role{user.RoleDefault})

	if err != nil {
		return "", err
	}

	return s.tokens.Issue(u.ID, u.Name, user.RoleStrings(u.Roles))
}

// Login verifies the password against the stored hash and returns a fresh
// credential. Unknown name and bad password are indistinguishable.
func (s *Service) Login(ctx context.Context, name, pass string) (string, error) {
	u, err := s.users.GetByName(ctx, name)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidCredentials
		}

		return "", err
	}

	if err := security.CheckPassword(u.PasswordHash, pass); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID, u.Name, user.RoleStrings(u.Roles))
}

type whoAmIResult struct {
	user user.User
	info SessionInfo
}

// WhoAmI resolves the identity a credential authenticates as, inside a scoped
// session, plus the backend session metadata.
func (s *Service) WhoAmI(ctx context.Context, credential string) (user.User, SessionInfo, error) {
	res, err := session.WithAuthValue(ctx, s.guard, credential, func(ctx context.Context, sess *session.Session) (whoAmIResult, error) {
		u, err := s.self.Self(ctx, sess)

		if err != nil {
			return whoAmIResult{}, err
		}

		return whoAmIResult{
			user: u,
			info: SessionInfo{
				UserID:    sess.Identity.UserID,
				ExpiresAt: sess.Identity.ExpiresAt,
			},
		}, nil
	})

	if err != nil {
		return user.User{}, SessionInfo{}, err
	}

	res.user.PasswordHash = ""

	return res.user, res.info, nil
}
