package identity_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/identity"
	"github.com/MarlinZapp/wishes-server/internal/session"
	"github.com/MarlinZapp/wishes-server/internal/store/memory"
)

func newService(t *testing.T) (*identity.Service, *auth.Manager) {
	t.Helper()

	store := memory.NewStore()
	repo := memory.NewUsersRepo(store)
	tokens := auth.NewManager("test-secret", 15*time.Minute)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := session.NewExclusive(store.NewConn())
	guard := session.NewGuard(tokens, backend, log, nil)

	return identity.NewService(repo, repo, tokens, guard), tokens
}

func TestRegisterIssuesWorkingCredential(t *testing.T) {
	svc, tokens := newService(t)

	cred, err := svc.Register(context.Background(), "alice", "s3cret")

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ident, err := tokens.Verify(cred)

	if err != nil {
		t.Fatalf("verify issued credential: %v", err)
	}

	if ident.Name != "alice" {
		t.Fatalf("name = %q, want alice", ident.Name)
	}

	if len(ident.Roles) != 1 || ident.Roles[0] != string(user.RoleDefault) {
		t.Fatalf("roles = %v, want exactly Default", ident.Roles)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	svc, _ := newService(t)

	if _, err := svc.Register(context.Background(), "alice", "one"); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := svc.Register(context.Background(), "alice", "two")

	if !errors.Is(err, user.ErrNameTaken) {
		t.Fatalf("want ErrNameTaken, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, tokens := newService(t)

	if _, err := svc.Register(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		cred, err := svc.Login(context.Background(), "alice", "s3cret")

		if err != nil {
			t.Fatalf("login: %v", err)
		}

		if _, err := tokens.Verify(cred); err != nil {
			t.Fatalf("verify: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "nope")

		if !errors.Is(err, identity.ErrInvalidCredentials) {
			t.Fatalf("want ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown name is indistinguishable", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "mallory", "nope")

		if !errors.Is(err, identity.ErrInvalidCredentials) {
			t.Fatalf("want ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestWhoAmI(t *testing.T) {
	svc, _ := newService(t)

	cred, err := svc.Register(context.Background(), "alice", "s3cret")

	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, info, err := svc.WhoAmI(context.Background(), cred)

	if err != nil {
		t.Fatalf("whoami: %v", err)
	}

	if u.Name != "alice" {
		t.Fatalf("name = %q, want alice", u.Name)
	}

	if u.PasswordHash != "" {
		t.Fatal("password hash leaked through whoami")
	}

	if info.UserID != u.ID {
		t.Fatalf("session userId = %q, want %q", info.UserID, u.ID)
	}

	if !info.ExpiresAt.After(time.Now()) {
		t.Fatalf("expiry %v not in the future", info.ExpiresAt)
	}
}

func TestWhoAmIRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.WhoAmI(context.Background(), "not-a-token")

	if !errors.Is(err, auth.ErrAuthenticationFailed) {
		t.Fatalf("want ErrAuthenticationFailed, got %v", err)
	}
}
