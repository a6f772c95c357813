package db

import (
	"context"
	"fmt"
	"hash/fnv"
)

// Per-document advisory locks narrow the idempotency gate's check-then-act
// race between concurrent runs sharing this database. They do not make the
// gate fully atomic: a process that crashes mid-run releases its lock when
// the connection drops, and runs against separate databases are not covered.

// hashLockID converts a document id to a 64-bit integer for
// pg_try_advisory_lock. Uses FNV-1a for consistent, well-distributed values.
func hashLockID(documentID string) int64 {
	h := fnv.New64a()
	h.Write([]byte("docpipe:process:" + documentID))
	return int64(h.Sum64())
}

// TryLockDocument attempts a non-blocking advisory lock for the document.
// The lock is connection-scoped, so the connection it was taken on is pinned
// until UnlockDocument runs.
func (c *DatabaseClient) TryLockDocument(ctx context.Context, documentID string) (bool, error) {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lock conn: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", hashLockID(documentID)).Scan(&acquired); err != nil {
		_ = conn.Close()
		return false, err
	}
	if !acquired {
		_ = conn.Close()
		return false, nil
	}

	c.mu.Lock()
	c.lockConns[documentID] = conn
	c.mu.Unlock()
	return true, nil
}

// UnlockDocument releases the advisory lock and returns the pinned
// connection to the pool. Safe to call when no lock is held.
func (c *DatabaseClient) UnlockDocument(ctx context.Context, documentID string) error {
	c.mu.Lock()
	conn, ok := c.lockConns[documentID]
	delete(c.lockConns, documentID)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", hashLockID(documentID)).Scan(&released)
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}
