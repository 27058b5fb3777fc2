// Package metrics provides Prometheus instrumentation for envhttp.
//
// Engine-level collectors (open / rejected connections, per-connection
// errors) are updated by pkg/engine directly. Application-level collectors
// are updated by Middleware, which wraps any gateway.App:
//
//	app = gateway.Chain(app, metrics.Middleware())
//	srv.Handle("/metrics", metrics.Handler())
package metrics

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// ─────────────────────────────────────────────
// Application metrics
// ─────────────────────────────────────────────

var (
	// RequestDuration tracks how long the application call takes, broken
	// down by mount point and status. Body streaming is not included.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "envhttp",
			Subsystem: "app",
			Name:      "call_duration_seconds",
			Help:      "Duration of application calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"script_name", "status"},
	)

	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envhttp",
			Subsystem: "app",
			Name:      "requests_total",
			Help:      "Total number of application calls.",
		},
		[]string{"script_name", "method", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "envhttp",
		Subsystem: "app",
		Name:      "requests_in_flight",
		Help:      "Number of responses currently being produced.",
	})

	// ResponseSize is observed when the body is released.
	ResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "envhttp",
			Subsystem: "app",
			Name:      "response_size_bytes",
			Help:      "Response body sizes in bytes.",
			Buckets:   []float64{100, 1_000, 10_000, 100_000, 1_000_000},
		},
		[]string{"script_name"},
	)

	BodyChunks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "envhttp",
		Subsystem: "app",
		Name:      "body_chunks_total",
		Help:      "Total body chunks produced by applications.",
	})

	AppErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envhttp",
			Subsystem: "app",
			Name:      "errors_total",
			Help:      "Application calls that returned an error.",
		},
		[]string{"script_name"},
	)

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "envhttp",
		Subsystem: "app",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

// ─────────────────────────────────────────────
// Engine metrics
// ─────────────────────────────────────────────

var (
	ConnectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "envhttp",
		Subsystem: "engine",
		Name:      "connections_open",
		Help:      "Connections currently holding a processor slot.",
	})

	ConnectionsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "envhttp",
		Subsystem: "engine",
		Name:      "connections_rejected_total",
		Help:      "Connections closed because every processor was busy.",
	})

	EngineErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "envhttp",
			Subsystem: "engine",
			Name:      "request_errors_total",
			Help:      "Handler failures, by whether the status line had been sent.",
		},
		[]string{"stage"}, // "before_status" | "after_status"
	)
)

// DefaultRegistry is the Prometheus registry used by envhttp.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestTotal,
		RequestInFlight,
		ResponseSize,
		BodyChunks,
		AppErrors,
		RateLimited,
		ConnectionsOpen,
		ConnectionsRejected,
		EngineErrors,
	)
}

// Register lets you add your own prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// ─────────────────────────────────────────────
// Application middleware
// ─────────────────────────────────────────────

// Middleware records call duration and counts per request, and response
// size once the body is released. Known-length bodies stay known-length.
func Middleware() gateway.Middleware {
	return func(next gateway.App) gateway.App {
		return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
			start := time.Now()
			script := env.String(gateway.ScriptName)
			if script == "" {
				script = "/"
			}

			res, err := next.Call(env)
			if err != nil {
				AppErrors.WithLabelValues(script).Inc()
				return res, err
			}

			status := strconv.Itoa(res.Status)
			RequestDuration.WithLabelValues(script, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(script, env.String(gateway.RequestMethod), status).Inc()

			RequestInFlight.Inc()
			res.Body = countBody(res.Body, script)
			return res, nil
		})
	}
}

type countingBody struct {
	inner  gateway.Body
	script string
	n      int64
	once   sync.Once
}

type sizedCountingBody struct {
	*countingBody
	size int64
}

func (b sizedCountingBody) Size() int64 { return b.size }

func countBody(inner gateway.Body, script string) gateway.Body {
	cb := &countingBody{inner: inner, script: script}
	if s, ok := inner.(gateway.Sized); ok {
		return sizedCountingBody{countingBody: cb, size: s.Size()}
	}
	return cb
}

func (b *countingBody) Next() ([]byte, error) {
	if b.inner == nil {
		return nil, io.EOF
	}
	chunk, err := b.inner.Next()
	if err == nil {
		b.n += int64(len(chunk))
		BodyChunks.Inc()
	}
	return chunk, err
}

func (b *countingBody) Close() error {
	b.once.Do(func() {
		RequestInFlight.Dec()
		ResponseSize.WithLabelValues(b.script).Observe(float64(b.n))
	})
	return gateway.Close(b.inner)
}

// ─────────────────────────────────────────────
// /metrics endpoint handler
// ─────────────────────────────────────────────

// Handler returns an http.Handler that exposes the Prometheus metrics page.
func Handler() http.Handler {
	return promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
