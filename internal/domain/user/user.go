package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleDefault Role = "Default"
	RoleAdmin   Role = "Admin"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrNameTaken = errors.New("user name already taken")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func RolesFromStrings(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	for _, r := range raw {
		out = append(out, Role(r))
	}
	return out
}
