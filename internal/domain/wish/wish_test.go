package wish_test

import (
	"testing"

	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
)

func TestStatusNextWalksTheFullLifecycle(t *testing.T) {
	want := []wish.Status{
		wish.StatusSubmitted,
		wish.StatusCreationInProgress,
		wish.StatusInDelivery,
		wish.StatusDelivered,
	}

	s := wish.StatusSubmitted

	for i := 1; i < len(want); i++ {
		next, ok := s.Next()

		if !ok {
			t.Fatalf("unexpected terminal at %s", s)
		}

		if next != want[i] {
			t.Fatalf("from %s: got %s, want %s", s, next, want[i])
		}

		s = next
	}

	if _, ok := s.Next(); ok {
		t.Fatalf("%s must be terminal", s)
	}

	if !s.Terminal() {
		t.Fatalf("Terminal() false for %s", s)
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []wish.Status{
		wish.StatusSubmitted, wish.StatusCreationInProgress, wish.StatusInDelivery, wish.StatusDelivered,
	} {
		if !s.IsValid() {
			t.Fatalf("%s should be valid", s)
		}
	}

	if wish.Status("Shipped").IsValid() {
		t.Fatal("unknown status should be invalid")
	}
}
