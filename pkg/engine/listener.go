package engine

import (
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shashiranjanraj/envhttp/pkg/metrics"
)

// limitListener enforces the processor cap and the accept throttle.
type limitListener struct {
	net.Listener
	sem      *semaphore.Weighted
	throttle time.Duration
	log      *slog.Logger
}

func newLimitListener(ln net.Listener, processors int, throttle time.Duration, log *slog.Logger) *limitListener {
	return &limitListener{
		Listener: ln,
		sem:      semaphore.NewWeighted(int64(processors)),
		throttle: throttle,
		log:      log,
	}
}

func (l *limitListener) Accept() (net.Conn, error) {
	for {
		c, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		if l.throttle > 0 {
			time.Sleep(l.throttle)
		}
		if !l.sem.TryAcquire(1) {
			metrics.ConnectionsRejected.Inc()
			l.log.Warn("server overloaded, closing connection", "remote", c.RemoteAddr().String())
			_ = c.Close()
			continue
		}
		metrics.ConnectionsOpen.Inc()
		return &limitConn{Conn: c, release: sync.OnceFunc(func() {
			metrics.ConnectionsOpen.Dec()
			l.sem.Release(1)
		})}, nil
	}
}

// limitConn gives its processor slot back on the first Close.
type limitConn struct {
	net.Conn
	release func()
}

func (c *limitConn) Close() error {
	err := c.Conn.Close()
	c.release()
	return err
}
