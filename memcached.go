package main

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

var ErrMemcachedClosed = errors.New("memcached closed")

type cached[V any] struct {
	value    V
	expireAt time.Time
}

// Memcached keeps values for ttl after their last Set. Once shut down it
// only refreshes keys it already holds.
type Memcached[K comparable, V any] struct {
	mu          sync.RWMutex
	cleanerOnce sync.Once
	cleanerCh   chan struct{}
	items       map[K]cached[V]
	ttlTimeout  time.Duration
	inShutdown  atomic.Bool
	now         func() time.Time
}

func NewMemcached[K comparable, V any](ttlTimeout, cleanupTimeout time.Duration) *Memcached[K, V] {
	mc := &Memcached[K, V]{
		cleanerCh:  make(chan struct{}),
		items:      make(map[K]cached[V]),
		ttlTimeout: ttlTimeout,
		now:        time.Now,
	}

	go func() {
		ticker := time.NewTicker(cleanupTimeout)
		defer ticker.Stop()

		for {
			select {
			case <-mc.cleanerCh:
				return
			case <-ticker.C:
				mc.cleanExpiredItems()
			}
		}
	}()
	return mc
}

func (mc *Memcached[K, V]) Set(key K, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	_, isExists := mc.items[key]
	if mc.inShutdown.Load() && !isExists {
		return
	}

	mc.items[key] = cached[V]{
		value:    value,
		expireAt: mc.now().Add(mc.ttlTimeout),
	}
}

func (mc *Memcached[K, V]) Get(key K) (V, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	item, exists := mc.items[key]
	if !exists || mc.now().After(item.expireAt) {
		var zero V
		return zero, false
	}
	return item.value, true
}

func (mc *Memcached[K, V]) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.items)
}

func (mc *Memcached[K, V]) IsEmpty() bool {
	return mc.Len() == 0
}

const shutdownIntervalMax = 500 * time.Millisecond

// Shutdown stops accepting new keys and waits for the remaining ones to
// expire.
func (mc *Memcached[K, V]) Shutdown(ctx context.Context) error {
	if !mc.inShutdown.CompareAndSwap(false, true) {
		return ErrMemcachedClosed
	}
	mc.closeCleaner()

	intervalBase := time.Millisecond
	nextInterval := func() time.Duration {
		interval := intervalBase + time.Duration(rand.Int63n(int64(intervalBase/10)+1))

		intervalBase *= 2
		if intervalBase > shutdownIntervalMax {
			intervalBase = shutdownIntervalMax
		}
		return interval
	}

	timer := time.NewTimer(nextInterval())
	defer timer.Stop()
	for {
		mc.cleanExpiredItems()
		if mc.IsEmpty() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(nextInterval())
		}
	}
}

func (mc *Memcached[K, V]) Close() error {
	if !mc.inShutdown.CompareAndSwap(false, true) {
		return ErrMemcachedClosed
	}
	mc.closeCleaner()

	mc.mu.Lock()
	defer mc.mu.Unlock()
	clear(mc.items)
	return nil
}

func (mc *Memcached[K, V]) cleanExpiredItems() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for k, v := range mc.items {
		if now.After(v.expireAt) {
			delete(mc.items, k)
		}
	}
}

func (mc *Memcached[K, V]) closeCleaner() {
	mc.cleanerOnce.Do(func() {
		close(mc.cleanerCh)
	})
}
