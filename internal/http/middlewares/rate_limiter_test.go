package middlewares_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
)

func limitedRouter(store middlewares.CounterStore, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := middlewares.NewRateLimiter(store, limit, time.Minute, log)

	r := gin.New()
	r.Use(rl.Middleware(middlewares.KeyByIP))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	return r
}

func hit(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":12345"

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestRateLimiterEnforcesLimitPerKey(t *testing.T) {
	r := limitedRouter(middlewares.NewMemoryCounters(), 3)

	for i := 0; i < 3; i++ {
		if rec := hit(r, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}

	rec := hit(r, "10.0.0.1")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rec.Code)
	}

	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}

	// a different client is unaffected
	if rec := hit(r, "10.0.0.2"); rec.Code != http.StatusOK {
		t.Fatalf("other client: status %d", rec.Code)
	}
}

type failingCounters struct{}

func (failingCounters) Incr(context.Context, string, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("store down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	r := limitedRouter(failingCounters{}, 1)

	for i := 0; i < 5; i++ {
		if rec := hit(r, "10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200 when store is down", i+1, rec.Code)
		}
	}
}

func TestMemoryCountersWindowReset(t *testing.T) {
	m := middlewares.NewMemoryCounters()

	count, _, err := m.Incr(context.Background(), "k", 10*time.Millisecond)

	if err != nil || count != 1 {
		t.Fatalf("first incr: count=%d err=%v", count, err)
	}

	count, _, _ = m.Incr(context.Background(), "k", 10*time.Millisecond)

	if count != 2 {
		t.Fatalf("second incr: count=%d, want 2", count)
	}

	time.Sleep(20 * time.Millisecond)

	count, _, _ = m.Incr(context.Background(), "k", 10*time.Millisecond)

	if count != 1 {
		t.Fatalf("after window: count=%d, want 1", count)
	}
}
