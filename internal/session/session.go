// Package session implements the scoped session guard: every data-layer
// operation runs on a connection that is authenticated with the caller's
// credential immediately before the operation and invalidated immediately
// after, no matter how the operation ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/observability"
)

var (
	// ErrBackendUnavailable marks transport faults towards the data layer.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrDeauthenticationFailed marks a failed invalidate. It is logged and
	// counted but never overrides the operation's own result.
	ErrDeauthenticationFailed = errors.New("deauthentication failed")
)

// invalidateTimeout bounds the cleanup call. It runs on a detached context so
// a canceled request still gets its binding cleared.
const invalidateTimeout = 2 * time.Second

// Conn is a backend connection whose authentication binding the guard manages.
// Store implementations extend it with their own query surface.
type Conn interface {
	Authenticate(ctx context.Context, id auth.Identity) error
	Invalidate(ctx context.Context) error
}

// Backend hands out connections. The release func returns the connection to
// its owner and must be safe to call exactly once.
type Backend interface {
	Acquire(ctx context.Context) (Conn, func(), error)
}

// Verifier resolves a raw credential to an identity. *auth.Manager satisfies it.
type Verifier interface {
	Verify(credential string) (auth.Identity, error)
}

// Session is the ephemeral binding between one verified identity and one
// backend connection. It never outlives the guard invocation that created it.
type Session struct {
	Identity auth.Identity
	Conn     Conn
}

type Guard struct {
	tokens  Verifier
	backend Backend
	log     *slog.Logger
	prom    *observability.Prom
}

// NewGuard builds a guard. prom may be nil (tests).
func NewGuard(tokens Verifier, backend Backend, log *slog.Logger, prom *observability.Prom) *Guard {
	return &Guard{
		tokens:  tokens,
		backend: backend,
		log:     log,
		prom:    prom,
	}
}

// WithAuth runs exactly one operation under the identity the credential
// authenticates as.
//
//  1. Verify the credential; on failure nothing was bound, so nothing is
//     cleaned up.
//  2. Acquire a connection and bind the identity to it.
//  3. Run op.
//  4. Unconditionally invalidate the binding, even when op failed or panicked.
//
// The span between Authenticate and Invalidate is a critical section on the
// connection: the backend guarantees no other request holds the same
// connection inside it (pool checkout, or the Exclusive wrapper for a single
// shared connection).
func (g *Guard) WithAuth(ctx context.Context, credential string, op func(ctx context.Context, s *Session) error) error {
	ident, err := g.tokens.Verify(credential)

	if err != nil {
		g.observe("verify_failed", 0)
		return err
	}

	conn, release, err := g.backend.Acquire(ctx)

	if err != nil {
		g.observe("acquire_failed", 0)
		if errors.Is(err, ErrBackendUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	start := time.Now()

	if err := conn.Authenticate(ctx, ident); err != nil {
		// Nothing was bound, so no invalidate. The connection still goes back.
		release()
		g.observe("bind_failed", time.Since(start).Seconds())
		return err
	}

	defer func() {
		// Detached context: cleanup must still be attempted when the request
		// was aborted mid-operation.
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
		defer cancel()

		if err := conn.Invalidate(ictx); err != nil {
			g.log.Error("session invalidate failed",
				"err", fmt.Errorf("%w: %v", ErrDeauthenticationFailed, err),
				"user_id", ident.UserID,
			)
			if g.prom != nil {
				g.prom.SessionInvalidateFailures.Inc()
			}
		}

		release()
		g.observe("completed", time.Since(start).Seconds())
	}()

	return op(ctx, &Session{Identity: ident, Conn: conn})
}

func (g *Guard) observe(outcome string, secs float64) {
	if g.prom != nil {
		g.prom.SessionSpanDuration.WithLabelValues(outcome).Observe(secs)
	}
}

// WithAuthValue is WithAuth for operations that produce a value.
func WithAuthValue[T any](ctx context.Context, g *Guard, credential string, op func(ctx context.Context, s *Session) (T, error)) (T, error) {
	var out T

	err := g.WithAuth(ctx, credential, func(ctx context.Context, s *Session) error {
		v, err := op(ctx, s)
		if err != nil {
			return err
		}
		out = v
		return nil
	})

	return out, err
}
