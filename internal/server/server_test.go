package server_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/config"
	"github.com/shashiranjanraj/envhttp/internal/server"
	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/middleware"
	"github.com/shashiranjanraj/envhttp/pkg/reqid"
	"github.com/shashiranjanraj/envhttp/pkg/urlmap"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func hello(body string) gateway.App {
	return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 200, Headers: gateway.NewHeaders("Content-Type", "text/plain"), Body: gateway.Chunks(body)}, nil
	})
}

func fetch(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(data)
}

func TestBuild_MountsTableMetricsAndHooks(t *testing.T) {
	table := urlmap.New().
		MustMap("/", hello("root")).
		MustMap("http://b.example/admin", hello("admin"))

	hooked := false
	opts := server.Options{
		Engine:      engine.DefaultOptions(),
		MapHost:     "a.example",
		MetricsPath: "/metrics",
		Middlewares: []gateway.Middleware{reqid.Middleware()},
		Configure:   []func(*engine.Server){func(*engine.Server) { hooked = true }},
		ErrorStream: io.Discard,
		Logger:      quiet(),
	}

	srv, entries, err := server.Build(table, opts)
	require.NoError(t, err)
	assert.True(t, hooked)
	require.Len(t, entries, 1)
	assert.Equal(t, "/", entries[0].Path)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, body := fetch(t, ts.URL+"/anything")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "root", body)
	assert.NotEmpty(t, res.Header.Get(reqid.Header))

	res, body = fetch(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestBuild_RejectsBadTarget(t *testing.T) {
	_, _, err := server.Build("not an app", server.Options{Logger: quiet(), ErrorStream: io.Discard})
	assert.ErrorIs(t, err, bridge.ErrConfig)
}

func TestBuild_ErrorStreamReachesApplication(t *testing.T) {
	var errs bytes.Buffer
	app := gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
		_, _ = io.WriteString(env.Errors(), "warned\n")
		return gateway.Response{Status: 204, Headers: gateway.NewHeaders(), Body: gateway.Empty()}, nil
	})

	srv, _, err := server.Build(app, server.Options{Logger: quiet(), ErrorStream: &errs})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, _ := fetch(t, ts.URL+"/")
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "warned\n", errs.String())
}

func TestDefaultMiddlewares(t *testing.T) {
	mws := server.DefaultMiddlewares(middleware.NewMemoryStore())
	assert.Len(t, mws, 4)

	app := gateway.Chain(hello("ok"), mws...)
	env := gateway.NewEnv(4)
	env.Set(gateway.RequestMethod, "GET")
	env.Set(gateway.ScriptName, "")
	env.Set(gateway.PathInfo, "/")
	env.Set(gateway.RemoteAddr, "10.0.0.1")

	res, err := app.Call(env)
	require.NoError(t, err)
	assert.Equal(t, 200, res.Status)
	assert.NotEmpty(t, res.Headers.Get(reqid.Header))
	require.NoError(t, gateway.Close(res.Body))
}

func panicky() gateway.App {
	return gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		panic("broken app")
	})
}

func panicEnv() *gateway.Env {
	env := gateway.NewEnv(4)
	env.Set(gateway.RequestMethod, "GET")
	env.Set(gateway.ScriptName, "")
	env.Set(gateway.PathInfo, "/")
	env.Set(gateway.RemoteAddr, "10.0.0.1")
	return env
}

func TestDefaultMiddlewares_PanicsReachTheEngine(t *testing.T) {
	app := gateway.Chain(panicky(), server.DefaultMiddlewares(nil)...)
	assert.Panics(t, func() { _, _ = app.Call(panicEnv()) })
}

func TestDefaultMiddlewares_RecoveryIsOptIn(t *testing.T) {
	config.Set("RECOVER_PANICS", "true")
	t.Cleanup(func() { config.Set("RECOVER_PANICS", "false") })

	mws := server.DefaultMiddlewares(nil)
	assert.Len(t, mws, 5)

	res, err := gateway.Chain(panicky(), mws...).Call(panicEnv())
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	require.NoError(t, gateway.Close(res.Body))
}
