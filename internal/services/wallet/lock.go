package wallet

import (
	"context"
	"sort"
	"sync"
	"time"
)

// lockManager serializes mutations per wallet. Each wallet gets a
// one-slot semaphore; acquisition is bounded so a stuck holder surfaces
// as ErrLockTimeout instead of a hung request. Database row locks still
// back this up across processes.
type lockManager struct {
	mu      sync.Mutex
	locks   map[uint]chan struct{}
	timeout time.Duration
}

func newLockManager(timeout time.Duration) *lockManager {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &lockManager{
		locks:   make(map[uint]chan struct{}),
		timeout: timeout,
	}
}

func (m *lockManager) slot(walletID uint) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.locks[walletID]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[walletID] = ch
	}
	return ch
}

// Acquire takes the wallet's exclusion slot, waiting at most the configured
// timeout. The returned release function must be called exactly once.
func (m *lockManager) Acquire(ctx context.Context, walletID uint) (func(), error) {
	ch := m.slot(walletID)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, ErrLockTimeout
	case <-ctx.Done():
		return nil, ErrLockTimeout.WithMessage("request cancelled while waiting for wallet exclusion")
	}
}

// AcquireMany takes multiple wallet slots in ascending walletID order so
// concurrent multi-wallet operations cannot deadlock.
func (m *lockManager) AcquireMany(ctx context.Context, walletIDs ...uint) (func(), error) {
	ids := append([]uint(nil), walletIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	releases := make([]func(), 0, len(ids))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, id := range ids {
		release, err := m.Acquire(ctx, id)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
