package lock

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_SerializesWithinProcess(t *testing.T) {
	l := NewLocker("state", "", time.Second)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background())
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocker_TimesOutOnProcessGate(t *testing.T) {
	l := NewLocker("state", "", 50*time.Millisecond)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = l.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, "state", timeoutErr.Resource)
}

func TestLocker_TimesOutOnForeignFileLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json.lock")

	// another holder of the advisory lock, as a second process would be
	other := flock.New(path)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	l := NewLocker("state.json", path, 80*time.Millisecond)
	_, err = l.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	require.NoError(t, other.Unlock())
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	release()
}

func TestLocker_ParentCancellationIsNotTimeout(t *testing.T) {
	l := NewLocker("state", "", time.Second)
	release, err := l.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx)
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, context.Canceled)
}
