package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/lock"
)

func newLocker(t *testing.T) (lock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.Locker{R: client, Prefix: "lock:", RetryBackoff: 5 * time.Millisecond}, mr
}

func TestWithLockSerializes(t *testing.T) {
	locker, _ := newLocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}
	firstIn := make(chan struct{})
	releaseFirst := make(chan struct{})
	done := make(chan error, 2)

	go func() {
		done <- locker.WithLock(ctx, "capture:PAY-1", time.Second, func(context.Context) error {
			record("first")
			close(firstIn)
			<-releaseFirst
			return nil
		})
	}()
	<-firstIn
	go func() {
		done <- locker.WithLock(ctx, "capture:PAY-1", time.Second, func(context.Context) error {
			record("second")
			return nil
		})
	}()
	close(releaseFirst)

	require.NoError(t, <-done)
	require.NoError(t, <-done)
	require.Equal(t, []string{"first", "second"}, order)
}

func TestTryWithLockFailsFast(t *testing.T) {
	locker, mr := newLocker(t)
	ctx := context.Background()

	err := locker.TryWithLock(ctx, "capture:PAY-2", time.Second, func(ctx context.Context) error {
		require.True(t, mr.Exists("lock:capture:PAY-2"))
		inner := locker.TryWithLock(ctx, "capture:PAY-2", time.Second, func(context.Context) error { return nil })
		require.ErrorIs(t, inner, lock.ErrNotAcquired)
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.False(t, mr.Exists("lock:capture:PAY-2"), "released after fn returns")
}
