//go:build unit

package memdb

import (
	"context"
	"sync"
	"time"

	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/usecase/shared"
)

// Locker is an in-process lease table keyed like the Redis one.
type Locker struct {
	mu       sync.Mutex
	clock    clock.Clock
	held     map[string]lease
	seq      int
	acquired int
}

type lease struct {
	token   int
	expires time.Time
}

func NewLocker(clk clock.Clock) *Locker {
	return &Locker{clock: clk, held: map[string]lease{}}
}

func (l *Locker) Acquire(_ context.Context, key string, ttl time.Duration) (shared.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if cur, ok := l.held[key]; ok && cur.expires.After(now) {
		return nil, shared.ErrLockNotAcquired
	}
	l.seq++
	l.acquired++
	l.held[key] = lease{token: l.seq, expires: now.Add(ttl)}
	return &memLease{locker: l, key: key, token: l.seq}, nil
}

// Hold takes key until released, for simulating another worker.
func (l *Locker) Hold(key string) func() {
	lease, err := l.Acquire(context.Background(), key, time.Hour)
	if err != nil {
		return func() {}
	}
	return func() { _ = lease.Release(context.Background()) }
}

func (l *Locker) Acquired() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

type memLease struct {
	locker *Locker
	key    string
	token  int
}

func (m *memLease) Release(_ context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()
	if cur, ok := m.locker.held[m.key]; ok && cur.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}
