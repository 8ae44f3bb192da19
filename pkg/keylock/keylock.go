// Package keylock serializes read-modify-write sequences per key. Different keys
// never contend with each other.
package keylock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/google/uuid"
)

var ErrLockBusy = errors.New("system busy, please try again later (lock)")

type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LockAll acquires several keys in sorted order so two callers locking the same
// pair can never deadlock. Duplicate keys are locked once.
func LockAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	var prev string
	for i, k := range sorted {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		unlock, err := l.Lock(ctx, k)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

type localLocker struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	ch   chan struct{}
	refs int
}

// NewLocal returns an in-process keyed mutex. Entries are dropped once no
// goroutine holds or waits on them.
func NewLocal() Locker {
	return &localLocker{locks: make(map[string]*refMutex)}
}

func (l *localLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &refMutex{ch: make(chan struct{}, 1)}
		l.locks[key] = m
	}
	m.refs++
	l.mu.Unlock()

	select {
	case m.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, m)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-m.ch
			l.release(key, m)
		})
	}, nil
}

func (l *localLocker) release(key string, m *refMutex) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(l.locks, key)
	}
}

type redisLocker struct {
	client   *cache.RedisClient
	ttl      time.Duration
	attempts int
	wait     time.Duration
}

// NewRedis returns a lock shared by every replica pointed at the same Redis.
func NewRedis(client *cache.RedisClient, ttl time.Duration) Locker {
	return &redisLocker{client: client, ttl: ttl, attempts: 30, wait: 100 * time.Millisecond}
}

func (r *redisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := "lock:stock:" + key
	lockValue := uuid.New().String()

	for i := 0; i < r.attempts; i++ {
		ok, err := r.client.AcquireLock(ctx, lockKey, lockValue, r.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = r.client.ReleaseLock(context.Background(), lockKey, lockValue)
			}, nil
		}
		select {
		case <-time.After(r.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrLockBusy
}
