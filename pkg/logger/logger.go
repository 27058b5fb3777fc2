// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is FromEnv: the Logger middleware stores
// a logger pre-tagged with the request ID in the request environment, so
// every log line an application writes is correlated:
//
//	log := logger.FromEnv(env)
//	log.Info("payment processed", "amount", 99.99)
//	// → time=... level=INFO msg="payment processed" request_id=a1b2c3d4 amount=99.99
package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/shashiranjanraj/envhttp/config"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

var L *slog.Logger

func init() {
	L = slog.New(baseHandler(os.Stdout))
	slog.SetDefault(L)
}

func baseHandler(w io.Writer) slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}) // structured JSON for log aggregators
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}) // human-readable for dev
	}
}

// EnableMongo fans every record out to a MongoDB collection in addition to
// stdout. The returned func flushes and disconnects the sink.
func EnableMongo(uri, db, collection string) (func(), error) {
	mh, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return nil, err
	}
	L = slog.New(NewMultiHandler(baseHandler(os.Stdout), mh))
	slog.SetDefault(L)
	return mh.Close, nil
}

// ─────────────────────────────────────────────
// Environment-aware logger
// ─────────────────────────────────────────────

// EnvKey is the environment key holding the per-request *slog.Logger.
const EnvKey = "envhttp.logger"

// FromEnv returns the per-request logger stored in env, or the base logger.
func FromEnv(env *gateway.Env) *slog.Logger {
	if env != nil {
		if v, ok := env.Get(EnvKey); ok {
			if log, ok := v.(*slog.Logger); ok && log != nil {
				return log
			}
		}
	}
	return L
}

// Inject stores log in env. Called by the Logger middleware.
func Inject(env *gateway.Env, log *slog.Logger) {
	env.Set(EnvKey, log)
}

// ─────────────────────────────────────────────
// Error stream
// ─────────────────────────────────────────────

// Writer returns an io.Writer that turns each written line into a log
// record at level. It is the application error stream (gateway.errors).
func Writer(level slog.Level) io.Writer {
	return &lineWriter{level: level}
}

type lineWriter struct {
	level slog.Level
	mu    sync.Mutex
	buf   []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if line := bytes.TrimRight(w.buf[:i], "\r"); len(line) > 0 {
			L.Log(context.Background(), w.level, string(line), "stream", "gateway.errors")
		}
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
