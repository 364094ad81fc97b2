package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
	"github.com/MarlinZapp/wishes-server/internal/store/memory"
)

func bind(t *testing.T, c *memory.Conn, id auth.Identity) {
	t.Helper()

	if err := c.Authenticate(context.Background(), id); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

var (
	alice = auth.Identity{UserID: "alice-id", Name: "alice", Roles: []string{"Default"}}
	bob   = auth.Identity{UserID: "bob-id", Name: "bob", Roles: []string{"Default"}}
	root  = auth.Identity{UserID: "root-id", Name: "root", Roles: []string{"Default", "Admin"}}
)

func TestOwnershipGating(t *testing.T) {
	store := memory.NewStore()
	conn := store.NewConn()

	bind(t, conn, alice)

	w, err := conn.CreateWish(nil, "a pony")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if w.CreatedBy != alice.UserID {
		t.Fatalf("created_by = %q, want the bound identity", w.CreatedBy)
	}

	if w.Status != wish.StatusSubmitted {
		t.Fatalf("status = %s, want Submitted", w.Status)
	}

	// owner sees it
	if got := conn.GetWish(w.ID); got == nil {
		t.Fatal("owner cannot read own wish")
	}

	// another Default user sees nothing, indistinguishable from absent
	bind(t, conn, bob)

	if got := conn.GetWish(w.ID); got != nil {
		t.Fatalf("foreign user can read wish: %+v", got)
	}

	if got := conn.DeleteWish(w.ID); got != nil {
		t.Fatal("foreign user can delete wish")
	}

	if got := conn.ProgressWish(w.ID); got != nil {
		t.Fatal("foreign user can progress wish")
	}

	if got := conn.ListWishes(false); len(got) != 0 {
		t.Fatalf("foreign user lists %d wishes, want 0", len(got))
	}

	// an Admin sees everything
	bind(t, conn, root)

	if got := conn.GetWish(w.ID); got == nil {
		t.Fatal("admin cannot read wish")
	}

	if got := conn.ListWishes(false); len(got) != 1 {
		t.Fatalf("admin lists %d wishes, want 1", len(got))
	}
}

func TestProgressSequence(t *testing.T) {
	store := memory.NewStore()
	conn := store.NewConn()

	bind(t, conn, alice)

	w, err := conn.CreateWish(nil, "a kite")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []wish.Status{
		wish.StatusCreationInProgress,
		wish.StatusInDelivery,
		wish.StatusDelivered,
	}

	for _, expected := range want {
		got := conn.ProgressWish(w.ID)

		if got == nil {
			t.Fatalf("progress returned nil before reaching %s", expected)
		}

		if got.Status != expected {
			t.Fatalf("status = %s, want %s", got.Status, expected)
		}
	}

	// terminal: no-op, nil result, stored value unchanged
	if got := conn.ProgressWish(w.ID); got != nil {
		t.Fatalf("progress past terminal returned %+v", got)
	}

	stored := conn.GetWish(w.ID)

	if stored == nil || stored.Status != wish.StatusDelivered {
		t.Fatalf("stored status changed at terminal: %+v", stored)
	}
}

func TestCreateWithExplicitIDConflicts(t *testing.T) {
	store := memory.NewStore()
	conn := store.NewConn()

	bind(t, conn, alice)

	id := "my-wish"

	if _, err := conn.CreateWish(&id, "first"); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := conn.CreateWish(&id, "second")

	if !errors.Is(err, wish.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestCreateWithoutIDNeverCollides(t *testing.T) {
	store := memory.NewStore()
	conn := store.NewConn()

	bind(t, conn, alice)

	for i := 0; i < 100; i++ {
		if _, err := conn.CreateWish(nil, "bulk"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestListWithUsername(t *testing.T) {
	store := memory.NewStore()

	u, err := store.CreateUser("alice", "hash", []user.Role{user.RoleDefault})

	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	conn := store.NewConn()

	bind(t, conn, auth.Identity{UserID: u.ID, Name: u.Name, Roles: []string{"Default"}})

	if _, err := conn.CreateWish(nil, "named"); err != nil {
		t.Fatalf("create wish: %v", err)
	}

	withNames := conn.ListWishes(true)

	if len(withNames) != 1 || withNames[0].Username == nil || *withNames[0].Username != "alice" {
		t.Fatalf("unexpected list: %+v", withNames)
	}

	plain := conn.ListWishes(false)

	if len(plain) != 1 || plain[0].Username != nil {
		t.Fatalf("username leaked without request: %+v", plain)
	}
}

func TestDeleteReturnsTheDeletedWish(t *testing.T) {
	store := memory.NewStore()
	conn := store.NewConn()

	bind(t, conn, alice)

	w, err := conn.CreateWish(nil, "short lived")

	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got := conn.DeleteWish(w.ID)

	if got == nil || got.ID != w.ID {
		t.Fatalf("delete returned %+v", got)
	}

	if again := conn.DeleteWish(w.ID); again != nil {
		t.Fatalf("second delete returned %+v", again)
	}
}

func TestDuplicateUserName(t *testing.T) {
	store := memory.NewStore()

	if _, err := store.CreateUser("alice", "h1", []user.Role{user.RoleDefault}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := store.CreateUser("alice", "h2", []user.Role{user.RoleDefault})

	if !errors.Is(err, user.ErrNameTaken) {
		t.Fatalf("want ErrNameTaken, got %v", err)
	}
}
