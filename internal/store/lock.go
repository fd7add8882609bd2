package store

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSyncAlreadyRunning reports that another process holds the bulk sync
// lock.
var ErrSyncAlreadyRunning = errors.New("a sync is already running")

// LockKey derives a stable advisory lock key from a scope pair.
func LockKey(kind, name string) int64 {
	kind = strings.ToLower(strings.TrimSpace(kind))
	name = strings.ToLower(strings.TrimSpace(name))

	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

var bulkSyncLockKey = LockKey("hubsync", "bulk-sync")

// SyncLock serializes bulk sync runs across processes sharing a database
// using a Postgres session advisory lock. The lock is held on a dedicated
// pool connection until Release.
type SyncLock struct {
	conn *pgxpool.Conn
	key  int64

	releaseOnce sync.Once
}

// AcquireSyncLock blocks until the bulk sync lock is held or ctx expires.
func AcquireSyncLock(ctx context.Context, pool *pgxpool.Pool) (*SyncLock, error) {
	if pool == nil {
		return nil, errors.New("lock pool is nil")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, bulkSyncLockKey); err != nil {
		conn.Release()
		return nil, err
	}
	return &SyncLock{conn: conn, key: bulkSyncLockKey}, nil
}

// TryAcquireSyncLock acquires the bulk sync lock without waiting. It
// returns ErrSyncAlreadyRunning when another holder has it.
func TryAcquireSyncLock(ctx context.Context, pool *pgxpool.Pool) (*SyncLock, error) {
	if pool == nil {
		return nil, errors.New("lock pool is nil")
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, bulkSyncLockKey).Scan(&ok); err != nil {
		conn.Release()
		return nil, err
	}
	if !ok {
		conn.Release()
		return nil, ErrSyncAlreadyRunning
	}
	return &SyncLock{conn: conn, key: bulkSyncLockKey}, nil
}

func (l *SyncLock) Release() error {
	if l == nil || l.conn == nil {
		return errors.New("lock is not configured")
	}
	var unlockErr error
	l.releaseOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, unlockErr = l.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, l.key)
		l.conn.Release()
	})
	return unlockErr
}
