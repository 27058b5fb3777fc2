// Package static serves files from a storage disk as a gateway application.
//
//	disk, _ := storage.Use("local")
//	table.MustMap("/assets", static.New(disk))
//
// The request's PATH_INFO is the key on the disk; a trailing slash maps to
// the index file. File bodies are streamed and closed by whoever emits the
// response.
package static

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/response"
	"github.com/shashiranjanraj/envhttp/pkg/storage"
)

// Option configures the file application.
type Option func(*server)

// WithIndex sets the file served for directory paths. Default "index.html".
func WithIndex(name string) Option { return func(s *server) { s.index = name } }

// WithMaxAge sets the Cache-Control max-age. Zero omits the header.
func WithMaxAge(d time.Duration) Option { return func(s *server) { s.maxAge = d } }

type server struct {
	disk   storage.Disk
	index  string
	maxAge time.Duration
}

// New returns an App serving files from disk.
func New(disk storage.Disk, opts ...Option) gateway.App {
	s := &server{disk: disk, index: "index.html"}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *server) Call(env *gateway.Env) (gateway.Response, error) {
	method := env.String(gateway.RequestMethod)
	if method != http.MethodGet && method != http.MethodHead {
		res := response.Error(http.StatusMethodNotAllowed, "Method Not Allowed")
		res.Headers.Set("Allow", "GET, HEAD")
		return res, nil
	}

	key := env.String(gateway.PathInfo)
	if key == "" || strings.HasSuffix(key, "/") {
		key += s.index
	}
	key = storage.Clean(key)

	ctx := context.Background()
	info, err := s.disk.Stat(ctx, key)
	if err != nil {
		return s.failure(env, key, err)
	}

	headers := gateway.NewHeaders("Content-Type", contentType(key, info))
	if !info.LastModified.IsZero() {
		headers.Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
		if notModified(env, info.LastModified) {
			return gateway.Response{Status: http.StatusNotModified, Headers: headers, Body: gateway.Empty()}, nil
		}
	}
	if s.maxAge > 0 {
		headers.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(s.maxAge.Seconds())))
	}

	if method == http.MethodHead {
		headers.Set("Content-Length", strconv.FormatInt(info.Size, 10))
		return gateway.Response{Status: http.StatusOK, Headers: headers, Body: gateway.Empty()}, nil
	}

	rc, info, err := s.disk.Open(ctx, key)
	if err != nil {
		return s.failure(env, key, err)
	}
	return gateway.Response{
		Status:  http.StatusOK,
		Headers: headers,
		Body:    gateway.SizedReader(rc, info.Size),
	}, nil
}

func (s *server) failure(env *gateway.Env, key string, err error) (gateway.Response, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return response.NotFound(), nil
	}
	logger.FromEnv(env).Error("static: read failed", "key", key, "error", err.Error())
	return gateway.Response{}, err
}

func contentType(key string, info storage.Info) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	if info.ContentType != "" {
		return info.ContentType
	}
	return "application/octet-stream"
}

func notModified(env *gateway.Env, modified time.Time) bool {
	since := env.Header("If-Modified-Since")
	if since == "" {
		return false
	}
	t, err := http.ParseTime(since)
	if err != nil {
		return false
	}
	return !modified.Truncate(time.Second).After(t)
}
