package debate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedSession(t *testing.T) *Session {
	t.Helper()
	prov := &scriptedProvider{answers: []string{"x"}}
	other := &scriptedProvider{answers: []string{"y"}}
	return newTestSession(t, 2, prov, other, &fakeCharger{})
}

func TestStorePutGetDelete(t *testing.T) {
	st := NewStore(time.Minute)
	s := storedSession(t)

	_, ok := st.Get(100, 7)
	assert.False(t, ok)

	st.Put(100, 7, s)
	got, ok := st.Get(100, 7)
	require.True(t, ok)
	assert.Same(t, s, got)

	// sessions are scoped to the (chat, owner) pair
	_, ok = st.Get(100, 8)
	assert.False(t, ok)
	_, ok = st.Get(101, 7)
	assert.False(t, ok)

	st.Delete(100, 7)
	_, ok = st.Get(100, 7)
	assert.False(t, ok)
}

func TestStorePutReplacesExisting(t *testing.T) {
	st := NewStore(time.Minute)
	old := storedSession(t)
	fresh := storedSession(t)

	st.Put(1, 1, old)
	st.Put(1, 1, fresh)
	got, ok := st.Get(1, 1)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestStoreSweepDropsIdleSessions(t *testing.T) {
	st := NewStore(20 * time.Millisecond)
	st.Put(1, 1, storedSession(t))
	st.Put(2, 2, storedSession(t))

	assert.Equal(t, 0, st.Sweep())

	time.Sleep(30 * time.Millisecond)
	// touching one entry keeps it alive
	_, ok := st.Get(1, 1)
	require.True(t, ok)

	assert.Equal(t, 1, st.Sweep())
	_, ok = st.Get(1, 1)
	assert.True(t, ok)
	_, ok = st.Get(2, 2)
	assert.False(t, ok)
}

func TestStoreRunCleanupStops(t *testing.T) {
	st := NewStore(time.Millisecond)
	st.Put(1, 1, storedSession(t))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		st.RunCleanup(5*time.Millisecond, stop)
		close(done)
	}()

	// poll slower than the sweep interval: Get refreshes the idle timer
	assert.Eventually(t, func() bool {
		_, ok := st.Get(1, 1)
		return !ok
	}, time.Second, 25*time.Millisecond)

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine did not stop")
	}
}
