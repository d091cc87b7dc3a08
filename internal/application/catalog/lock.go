package catalog

import (
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
)

// lease is one environment's sync lease: an owner token plus expiry.
type lease struct {
	token  uint64
	expiry time.Time
}

// syncLock enforces at-most-one in-flight sync per environment. It is
// lease-based: a holder that never releases (crashed pass) is forcibly
// displaced once its TTL elapses, so a wedged lock cannot outlive the
// lease. Each acquisition is identified by a token; a release only
// frees the lease when the token still matches, so a displaced holder
// cannot free its displacer's lease. Concurrent acquisition attempts
// are rejected, never queued.
type syncLock struct {
	mu     sync.Mutex
	ttl    time.Duration
	next   uint64
	leases map[catalog.Environment]lease
}

func newSyncLock(ttl time.Duration) *syncLock {
	return &syncLock{
		ttl:    ttl,
		leases: make(map[catalog.Environment]lease),
	}
}

// TryAcquire takes the environment's lease if it is free or expired,
// returning the owner token for the paired Release.
func (l *syncLock) TryAcquire(env catalog.Environment) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cur, held := l.leases[env]; held && time.Now().Before(cur.expiry) {
		return 0, false
	}
	l.next++
	l.leases[env] = lease{token: l.next, expiry: time.Now().Add(l.ttl)}
	return l.next, true
}

// Release frees the environment's lease, but only for the holder that
// took it. A stale token (the holder was displaced after its TTL) is a
// no-op.
func (l *syncLock) Release(env catalog.Environment, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, held := l.leases[env]; held && cur.token == token {
		delete(l.leases, env)
	}
}
