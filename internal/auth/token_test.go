package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/MarlinZapp/wishes-server/internal/auth"
)

func TestIssueAndVerify(t *testing.T) {
	m := auth.NewManager("test-secret", 15*time.Minute)

	cred, err := m.Issue("user-1", "alice", []string{"Default"})

	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	ident, err := m.Verify(cred)

	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if ident.UserID != "user-1" || ident.Name != "alice" {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	if len(ident.Roles) != 1 || ident.Roles[0] != "Default" {
		t.Fatalf("unexpected roles: %v", ident.Roles)
	}

	if remaining := time.Until(ident.ExpiresAt); remaining < 14*time.Minute || remaining > 15*time.Minute {
		t.Fatalf("unexpected expiry: %v", ident.ExpiresAt)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	cred, err := m.Issue("user-1", "alice", nil)

	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = m.Verify(cred)

	if !errors.Is(err, auth.ErrAuthenticationFailed) {
		t.Fatalf("want ErrAuthenticationFailed, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	cred, err := auth.NewManager("secret-a", time.Minute).Issue("user-1", "alice", nil)

	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = auth.NewManager("secret-b", time.Minute).Verify(cred)

	if !errors.Is(err, auth.ErrAuthenticationFailed) {
		t.Fatalf("want ErrAuthenticationFailed, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Minute)

	for _, cred := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(cred); !errors.Is(err, auth.ErrAuthenticationFailed) {
			t.Fatalf("credential %q: want ErrAuthenticationFailed, got %v", cred, err)
		}
	}
}
