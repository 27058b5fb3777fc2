package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/urlmap"
)

type fakeRegistrar struct {
	paths    []string
	handlers []engine.Handler
}

func (f *fakeRegistrar) Register(path string, h engine.Handler) {
	f.paths = append(f.paths, path)
	f.handlers = append(f.handlers, h)
}

func ok(body string) gateway.App {
	return gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 200, Headers: gateway.NewHeaders(), Body: gateway.Chunks(body)}, nil
	})
}

func TestMount_SingleAppAtRoot(t *testing.T) {
	reg := &fakeRegistrar{}

	entries, err := bridge.Mount(reg, ok("hi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, reg.paths)
	require.Len(t, entries, 1)
	assert.Equal(t, "/", entries[0].Path)
	assert.IsType(t, &bridge.Bridge{}, reg.handlers[0])
}

func TestMount_PathMapNormalizesLeadingSeparator(t *testing.T) {
	reg := &fakeRegistrar{}

	_, err := bridge.Mount(reg, bridge.PathMap{
		{Path: "foo", App: ok("foo")},
		{Path: "/bar", App: ok("bar")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/foo", "/bar"}, reg.paths)
}

func TestMount_PlainMapSortedOrder(t *testing.T) {
	reg := &fakeRegistrar{}

	_, err := bridge.Mount(reg, map[string]gateway.App{
		"foo":  ok("foo"),
		"/bar": ok("bar"),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/foo", "/bar"}, reg.paths)
	assert.Equal(t, []string{"/bar", "/foo"}, reg.paths)
}

func TestMount_URLMapHostConstraint(t *testing.T) {
	table := urlmap.New().
		MustMap("http://a.example/", ok("a-root")).
		MustMap("http://b.example/", ok("b-root")).
		MustMap("http://a.example/api", ok("a-api")).
		MustMap("http://b.example/api", ok("b-api"))

	reg := &fakeRegistrar{}
	entries, err := bridge.Mount(reg, table, bridge.WithHost("a.example"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/api"}, reg.paths)
	for _, e := range entries {
		assert.Equal(t, "a.example", e.Host)
	}
}

func TestMount_URLMapWithoutConstraintRegistersAll(t *testing.T) {
	table := urlmap.New().
		MustMap("http://a.example/x", ok("a")).
		MustMap("/shared", ok("shared")).
		MustMap("http://b.example/y", ok("b"))

	reg := &fakeRegistrar{}
	_, err := bridge.Mount(reg, table)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x", "/shared", "/y"}, reg.paths)
}

func TestMount_HostlessEntriesSurviveConstraint(t *testing.T) {
	table := urlmap.New().
		MustMap("/shared", ok("shared")).
		MustMap("http://b.example/y", ok("b"))

	reg := &fakeRegistrar{}
	_, err := bridge.Mount(reg, table, bridge.WithHost("a.example"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/shared"}, reg.paths)
}

func TestMount_RejectsUnknownShapes(t *testing.T) {
	for _, target := range []any{nil, "not an app", 42, map[string]string{"/": "x"}, (*urlmap.URLMap)(nil)} {
		reg := &fakeRegistrar{}
		_, err := bridge.Mount(reg, target)
		assert.ErrorIs(t, err, bridge.ErrConfig, "%T", target)
		assert.Empty(t, reg.paths)
	}
}

func TestMount_RejectsNilApplicationInMap(t *testing.T) {
	reg := &fakeRegistrar{}
	_, err := bridge.Mount(reg, bridge.PathMap{{Path: "/a", App: ok("a")}, {Path: "/b"}})
	assert.ErrorIs(t, err, bridge.ErrConfig)
	assert.Empty(t, reg.paths)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/foo", bridge.NormalizePath("foo"))
	assert.Equal(t, "/bar", bridge.NormalizePath("/bar"))
	assert.Equal(t, "/", bridge.NormalizePath(""))
}
