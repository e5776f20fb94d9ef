package locking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"servimatch/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ProviderLocker serializes work that reads then writes one provider's
// schedule. The returned unlock func must be called exactly once.
type ProviderLocker interface {
	Lock(ctx context.Context, providerID int64) (unlock func(), err error)
}

// KeyedMutex is an in-process ProviderLocker.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[int64]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, providerID int64) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[providerID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[providerID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(providerID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(providerID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(providerID int64, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, providerID)
	}
}

// ErrLockTimeout is returned when a distributed lock cannot be acquired in time.
var ErrLockTimeout = errors.New("timed out acquiring provider lock")

const redisLockPrefix = "lock:provider:"

// Deletes the key only when it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Pushes the expiry out only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0
`)

// MinLockTTL covers the store round trips a holder makes under the lock
// (slot and booking reads, then the write) before the first extension.
const MinLockTTL = 3 * utils.StoreTimeout

// RedisLocker is a ProviderLocker shared by every instance using the same Redis.
// TTL bounds how long a crashed holder can block others. A live holder
// extends its key every TTL/3 until it unlocks.
type RedisLocker struct {
	Client     *redis.Client
	TTL        time.Duration
	RetryEvery time.Duration
	MaxWait    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	ttl = lockTTL(ttl)
	return &RedisLocker{
		Client:     client,
		TTL:        ttl,
		RetryEvery: 25 * time.Millisecond,
		MaxWait:    ttl,
	}
}

func lockTTL(ttl time.Duration) time.Duration {
	if ttl < MinLockTTL {
		return MinLockTTL
	}
	return ttl
}

func (r *RedisLocker) Lock(ctx context.Context, providerID int64) (func(), error) {
	key := redisLockPrefix + strconv.FormatInt(providerID, 10)
	token := uuid.NewString()
	ttl := lockTTL(r.TTL)

	waitCtx, cancel := context.WithTimeout(ctx, r.MaxWait)
	defer cancel()

	ticker := time.NewTicker(r.RetryEvery)
	defer ticker.Stop()

	for {
		ok, err := r.Client.SetNX(waitCtx, key, token, ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed to acquire lock for provider %d: %w", providerID, err)
		}
		if ok {
			break
		}
		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrLockTimeout
		}
	}

	holdCtx, stopRenew := context.WithCancel(context.Background())
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		keepAlive(holdCtx, ttl/3, func(ctx context.Context) (bool, error) {
			n, err := extendScript.Run(ctx, r.Client, []string{key}, token, ttl.Milliseconds()).Int()
			return n == 1, err
		})
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopRenew()
			<-renewed
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = unlockScript.Run(releaseCtx, r.Client, []string{key}, token).Err()
		})
	}, nil
}

// keepAlive calls extend every interval until ctx is done or the lock is
// found lost. A failed round trip is retried on the next tick.
func keepAlive(ctx context.Context, every time.Duration, extend func(context.Context) (bool, error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		callCtx, cancel := context.WithTimeout(ctx, every)
		held, err := extend(callCtx)
		cancel()
		if err == nil && !held {
			return
		}
	}
}
