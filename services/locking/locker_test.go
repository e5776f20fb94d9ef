package locking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameProvider(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, 42)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.locks)
}

func TestKeyedMutex_IndependentProviders(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := locker.Lock(ctx, 1)
	require.NoError(t, err)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB, err := locker.Lock(ctx, 2)
		if err == nil {
			unlockB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another provider blocked")
	}
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	locker := NewKeyedMutex()

	unlock, err := locker.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, 7)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()

	unlock, err = locker.Lock(context.Background(), 7)
	require.NoError(t, err)
	unlock()
	assert.Empty(t, locker.locks)
}

func TestLockTTL_Floor(t *testing.T) {
	assert.Equal(t, MinLockTTL, lockTTL(time.Second))
	assert.Equal(t, MinLockTTL, lockTTL(0))
	assert.Equal(t, time.Minute, lockTTL(time.Minute))

	l := NewRedisLocker(nil, 2*time.Second)
	assert.Equal(t, MinLockTTL, l.TTL)
	assert.Equal(t, l.TTL, l.MaxWait)
}

func TestKeepAlive_ExtendsUntilStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu    sync.Mutex
		calls int
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(ctx, 5*time.Millisecond, func(context.Context) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 2 {
				return false, errors.New("redis: i/o timeout")
			}
			return true, nil
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 4
	}, time.Second, time.Millisecond, "a failed round trip does not stop renewal")
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepAlive did not stop after cancel")
	}
}

func TestKeepAlive_StopsWhenLockLost(t *testing.T) {
	calls := 0
	keepAlive(context.Background(), time.Millisecond, func(context.Context) (bool, error) {
		calls++
		return calls < 3, nil
	})
	assert.Equal(t, 3, calls)
}
