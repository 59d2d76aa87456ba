package cache

import (
	"context"
	"sync"
	"time"

	"github.com/repairshop/backend/internal/domain/shared"
)

// InMemoryLocker implements shared.Locker within one process
type InMemoryLocker struct {
	mu     sync.Mutex
	leases map[string]*memoryLock
	now    func() time.Time
}

// NewInMemoryLocker creates a new in-memory locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{leases: make(map[string]*memoryLock), now: time.Now}
}

// TryLock implements shared.Locker
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (shared.Lock, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[key]; ok && l.now().Before(held.expiresAt) {
		return nil, false, nil
	}
	lease := &memoryLock{owner: l, key: key, expiresAt: l.now().Add(ttl)}
	l.leases[key] = lease
	return lease, true, nil
}

type memoryLock struct {
	owner     *InMemoryLocker
	key       string
	expiresAt time.Time
}

func (m *memoryLock) Release(context.Context) error {
	m.owner.mu.Lock()
	defer m.owner.mu.Unlock()
	if m.owner.leases[m.key] == m {
		delete(m.owner.leases, m.key)
	}
	return nil
}

var _ shared.Locker = (*InMemoryLocker)(nil)
