package session

import (
	"context"
	"fmt"
	"sync"
)

// Exclusive serializes guard invocations over a single shared connection.
// Acquire blocks until the previous holder has released, so two
// authenticate/operate/invalidate spans can never interleave on the
// connection. This is the backend mode for the embedded in-memory store;
// the Postgres backend avoids the problem entirely by checking a dedicated
// connection out of the pool per request.
type Exclusive struct {
	conn Conn
	sem  chan struct{}
}

func NewExclusive(conn Conn) *Exclusive {
	return &Exclusive{
		conn: conn,
		sem:  make(chan struct{}, 1),
	}
}

func (e *Exclusive) Acquire(ctx context.Context) (Conn, func(), error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, ctx.Err())
	}

	var once sync.Once

	release := func() {
		once.Do(func() { <-e.sem })
	}

	return e.conn, release, nil
}
