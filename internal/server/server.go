// Package server boots the engine: it builds an engine.Server from options,
// mounts the dispatch target through bridge.Mount and serves until the
// context is cancelled.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shashiranjanraj/envhttp/config"
	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/cache"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/metrics"
	"github.com/shashiranjanraj/envhttp/pkg/middleware"
	"github.com/shashiranjanraj/envhttp/pkg/reqid"
	"github.com/shashiranjanraj/envhttp/pkg/storage"
)

// Options is everything Run needs besides the dispatch target.
type Options struct {
	Engine engine.Options
	// MapHost keeps only routing table entries for this host (plus the
	// host-less ones). Empty registers every entry.
	MapHost string
	// MetricsPath mounts the Prometheus page; empty disables it.
	MetricsPath string
	// Middlewares wrap every mounted application, first = outermost.
	Middlewares []gateway.Middleware
	// Configure hooks run with the engine after mounting, before serving.
	Configure []func(*engine.Server)
	// ErrorStream becomes gateway.errors. Nil means a WARN-level log writer.
	ErrorStream io.Writer
	Logger      *slog.Logger
}

// OptionsFromConfig reads the server settings from config.
func OptionsFromConfig() Options {
	return Options{
		Engine: engine.Options{
			Host:            config.ServerHost(),
			Port:            config.ServerPort(),
			Processors:      config.ServerProcessors(),
			Throttle:        config.ServerThrottle(),
			Timeout:         config.ServerTimeout(),
			MaxBodyInMemory: engine.DefaultMaxBodyInMemory,
		},
		MapHost:     config.MapHost(),
		MetricsPath: config.MetricsPath(),
	}
}

// DefaultMiddlewares is the stack every application gets (outermost first):
//
//  1. Prometheus metrics: outermost for accurate totals
//  2. Recovery, only when RECOVER_PANICS is set; otherwise application
//     errors and panics reach the engine unchanged
//  3. Request ID: assigned before anything logs
//  4. Logger: logs with the request_id
//  5. CORS
//  6. Rate limiter, when RATE_LIMIT > 0
func DefaultMiddlewares(store middleware.Store) []gateway.Middleware {
	mws := []gateway.Middleware{metrics.Middleware()}
	if config.RecoverPanics() {
		mws = append(mws, middleware.Recovery)
	}
	mws = append(mws,
		reqid.Middleware(),
		middleware.Logger,
		middleware.CORS(middleware.DefaultCORSOptions()),
	)
	if limit := config.RateLimit(); limit > 0 && store != nil {
		mws = append(mws, middleware.RateLimit(store, limit, config.RateWindow()))
	}
	return mws
}

// Build creates the engine and mounts target on it.
func Build(target any, opts Options) (*engine.Server, []bridge.Entry, error) {
	log := opts.Logger
	if log == nil {
		log = logger.L
	}
	errs := opts.ErrorStream
	if errs == nil {
		errs = logger.Writer(slog.LevelWarn)
	}

	srv := engine.New(opts.Engine, log)

	entries, err := bridge.Mount(srv, target,
		bridge.WithHost(opts.MapHost),
		bridge.WithErrorStream(errs),
		bridge.WithMiddleware(opts.Middlewares...),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("server: mount: %w", err)
	}

	if opts.MetricsPath != "" {
		srv.Handle(opts.MetricsPath, metrics.Handler())
	}
	for _, fn := range opts.Configure {
		fn(srv)
	}
	return srv, entries, nil
}

// Run builds the engine and serves until ctx is cancelled.
func Run(ctx context.Context, target any, opts Options) error {
	srv, entries, err := Build(target, opts)
	if err != nil {
		return err
	}

	log := opts.Logger
	if log == nil {
		log = logger.L
	}
	for _, e := range entries {
		log.Info("mounted", "host", e.Host, "path", e.Path, "app", fmt.Sprintf("%T", e.App))
	}
	if opts.MetricsPath != "" {
		log.Info("metrics enabled", "path", opts.MetricsPath)
	}

	return srv.ListenAndServe(ctx)
}

// Start is the process entry point: it boots config and the optional
// backends, then serves target until SIGINT or SIGTERM.
func Start(target any, opts Options, extra ...gateway.Middleware) error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("server: config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if uri := config.LogMongoURI(); uri != "" {
		closeSink, err := logger.EnableMongo(uri, config.LogMongoDB(), config.LogMongoCollection())
		if err != nil {
			logger.Warn("log sink disabled", "error", err.Error())
		} else {
			defer closeSink()
		}
	}

	storage.Connect(ctx)

	var store middleware.Store = middleware.NewMemoryStore()
	if config.RateLimit() > 0 && config.RateStore() == "redis" {
		if err := cache.Connect(ctx); err != nil {
			logger.Warn("redis unavailable, rate limiting in memory", "error", err.Error())
		} else {
			defer cache.Close()
			store = middleware.NewRedisStore(cache.RDB, "")
		}
	}

	opts.Middlewares = append(DefaultMiddlewares(store), append(opts.Middlewares, extra...)...)
	return Run(ctx, target, opts)
}
