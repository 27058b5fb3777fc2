package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/envhttp/pkg/metrics"
)

const shutdownGrace = 10 * time.Second

// Options are the engine's tuning knobs.
type Options struct {
	Host string
	Port int
	// Processors caps the number of concurrently open connections.
	// Connections accepted beyond the cap are closed immediately.
	Processors int
	// Throttle is the pause after each accept, in hundredths of a second.
	Throttle int
	// Timeout is the request read / keep-alive idle timeout in seconds.
	Timeout int
	// MaxBodyInMemory is the largest request body kept in memory.
	MaxBodyInMemory int64
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Host:            "0.0.0.0",
		Port:            8080,
		Processors:      950,
		Throttle:        0,
		Timeout:         60,
		MaxBodyInMemory: DefaultMaxBodyInMemory,
	}
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

func (o Options) timeout() time.Duration { return time.Duration(o.Timeout) * time.Second }

// throttle is Throttle hundredths of a second.
func (o Options) throttle() time.Duration { return time.Duration(o.Throttle) * 10 * time.Millisecond }

// Server is the native engine. Register handlers before calling Serve; the
// registration table is read-only once traffic starts.
type Server struct {
	opts Options
	log  *slog.Logger
	mux  chi.Router

	mu      sync.Mutex
	routes  []string
	httpSrv *http.Server
	addr    net.Addr
}

// New creates a Server. A nil logger falls back to slog.Default().
func New(opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	def := DefaultOptions()
	if opts.Processors <= 0 {
		opts.Processors = def.Processors
	}
	if opts.MaxBodyInMemory <= 0 {
		opts.MaxBodyInMemory = def.MaxBodyInMemory
	}

	mux := chi.NewRouter()
	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return &Server{opts: opts, log: log, mux: mux}
}

// Options returns the options the server was built with.
func (s *Server) Options() Options { return s.opts }

// Register binds h to every request path under prefix. The longest
// registered prefix wins.
func (s *Server) Register(prefix string, h Handler) {
	prefix = cleanPrefix(prefix)
	hf := s.serve(prefix, h)

	if prefix == "/" {
		s.mux.Handle("/*", hf)
	} else {
		s.mux.Handle(prefix, hf)
		s.mux.Handle(prefix+"/*", hf)
	}

	s.mu.Lock()
	s.routes = append(s.routes, prefix)
	s.mu.Unlock()
}

// Handle mounts a plain net/http handler at an exact path, for endpoints
// that live beside the registered applications (e.g. /metrics).
func (s *Server) Handle(path string, h http.Handler) {
	s.mux.Handle(cleanPrefix(path), h)
}

// Routes lists the registered prefixes in registration order.
func (s *Server) Routes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.routes...)
}

// Handler exposes the routing table as an http.Handler.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the bound address once Serve has started, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe binds Options.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr())
	if err != nil {
		return fmt.Errorf("engine: listen %s: %w", s.opts.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// newHTTPServer applies Timeout as the read and idle timeouts.
func (s *Server) newHTTPServer() *http.Server {
	timeout := s.opts.timeout()
	return &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: timeout,
		ReadTimeout:       timeout,
		IdleTimeout:       timeout,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	timeout := s.opts.timeout()
	throttle := s.opts.throttle()
	srv := s.newHTTPServer()

	s.mu.Lock()
	s.httpSrv = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info("engine listening",
		"addr", ln.Addr().String(),
		"processors", s.opts.Processors,
		"throttle", throttle.String(),
		"timeout", timeout.String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(newLimitListener(ln, s.opts.Processors, throttle, s.log))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	s.log.Info("engine shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("engine: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serve is the per-request entry point for a registered Handler.
func (s *Server) serve(prefix string, h Handler) http.HandlerFunc {
	_, defaultPort, _ := net.SplitHostPort(s.opts.Addr())

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		body, cleanup, err := spoolBody(r.Body, s.opts.MaxBodyInMemory)
		defer cleanup()
		if err != nil {
			s.log.Warn("request body unreadable", "error", err, "path", r.URL.Path)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		req := &request{params: buildParams(r, prefix, defaultPort), body: body}
		res := newResponse(w, r.Method == http.MethodHead)

		if err := process(h, req, res); err != nil {
			s.fail(w, r, res, err)
		}
		res.finish()

		s.log.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"script_name", prefix,
			"status", res.status,
			"bytes", res.written,
			"duration", time.Since(start).String(),
		)
	}
}

// fail is the per-connection error handling: a 500 when nothing has reached
// the client yet, otherwise the connection is simply dropped.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, res *response, err error) {
	stage := "before_status"
	if res.statusSent {
		stage = "after_status"
	}
	metrics.EngineErrors.WithLabelValues(stage).Inc()
	attrs := []any{
		"error", err.Error(),
		"stage", stage,
		"method", r.Method,
		"path", r.URL.Path,
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	s.log.Error("request failed", attrs...)
	if !res.statusSent && res.conn == nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// process runs h, turning a panic into an error.
func process(h Handler, req Request, res Response) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return h.Process(req, res)
}

// PanicError carries a panic recovered from a Handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("engine: handler panic: %v", e.Value)
}

func cleanPrefix(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
