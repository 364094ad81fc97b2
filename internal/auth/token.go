package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthenticationFailed covers bad, malformed and expired credentials.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Identity is what a verified credential resolves to.
type Identity struct {
	UserID    string
	Name      string
	Roles     []string
	ExpiresAt time.Time
}

type Claims struct {
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue mints a credential bound to one identity, carrying its expiry.
func (m *Manager) Issue(userID, name string, roles []string) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Name:  name,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Verify resolves a credential to the identity it authenticates as.
func (m *Manager) Verify(credential string) (Identity, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrAuthenticationFailed
	}

	var expiresAt time.Time

	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return Identity{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Roles:     claims.Roles,
		ExpiresAt: expiresAt,
	}, nil
}
