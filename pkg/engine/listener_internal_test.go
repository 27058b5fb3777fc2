package engine

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLimitListener_ThrottleSpacesAccepts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	opts := Options{Throttle: 5} // 50ms
	ll := newLimitListener(ln, 10, opts.throttle(), discardLogger())

	for i := 0; i < 3; i++ {
		c, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })
	}

	start := time.Now()
	for i := 0; i < 3; i++ {
		c, err := ll.Accept()
		require.NoError(t, err)
		require.NoError(t, c.Close())
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestLimitListener_NoThrottleByDefault(t *testing.T) {
	assert.Zero(t, Options{}.throttle())
	assert.Equal(t, 20*time.Millisecond, Options{Throttle: 2}.throttle())
}

func TestLimitListener_SlotReturnsOnClose(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	ll := newLimitListener(ln, 1, 0, discardLogger())

	for i := 0; i < 2; i++ {
		c, err := net.Dial("tcp", ln.Addr().String())
		require.NoError(t, err)
		t.Cleanup(func() { _ = c.Close() })

		accepted, err := ll.Accept()
		require.NoError(t, err)
		require.NoError(t, accepted.Close())
		_ = accepted.Close()
	}
	assert.True(t, ll.sem.TryAcquire(1), "every slot was released exactly once")
}

func TestNewHTTPServer_TimeoutReachesServer(t *testing.T) {
	s := New(Options{Timeout: 7}, discardLogger())
	hs := s.newHTTPServer()

	assert.Equal(t, 7*time.Second, hs.ReadTimeout)
	assert.Equal(t, 7*time.Second, hs.ReadHeaderTimeout)
	assert.Equal(t, 7*time.Second, hs.IdleTimeout)
	assert.NotNil(t, hs.Handler)

	assert.Zero(t, New(Options{}, discardLogger()).newHTTPServer().ReadTimeout)
}
