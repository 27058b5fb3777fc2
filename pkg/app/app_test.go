package app_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/app"
	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/urlmap"
)

func noop() gateway.App {
	return gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 204, Headers: gateway.NewHeaders(), Body: gateway.Empty()}, nil
	})
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, app.New(noop()).Execute([]string{"version"}, &out))
	assert.Equal(t, "envhttp "+engine.Version+" (gateway 0.1)\n", out.String())
}

func TestRoutesCommand_ListsTable(t *testing.T) {
	table := urlmap.New().
		MustMap("/", noop()).
		MustMap("/api", noop()).
		MustMap("http://admin.example/ops", noop())

	var out bytes.Buffer
	require.NoError(t, app.New(table).Execute([]string{"routes"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"HOST", "PATH", "APP"}, strings.Fields(lines[0]))
	assert.Contains(t, out.String(), "admin.example")
	assert.Contains(t, out.String(), "/api")
}

func TestRoutesCommand_HostFilter(t *testing.T) {
	table := urlmap.New().
		MustMap("/", noop()).
		MustMap("http://admin.example/ops", noop())

	var out bytes.Buffer
	require.NoError(t, app.New(table).Execute([]string{"routes", "--map-host", "www.example"}, &out))
	assert.NotContains(t, out.String(), "/ops")
}

func TestRoutesCommand_PathMap(t *testing.T) {
	var out bytes.Buffer
	pm := bridge.PathMap{{Path: "b", App: noop()}}
	require.NoError(t, app.New(pm).Execute([]string{"routes"}, &out))
	assert.Contains(t, out.String(), "/b")
}

func TestRoutesCommand_BadTarget(t *testing.T) {
	var out bytes.Buffer
	err := app.New(42).Execute([]string{"routes"}, &out)
	assert.ErrorIs(t, err, bridge.ErrConfig)
}

func TestServeFlagsAreRegistered(t *testing.T) {
	serve, _, err := app.New(noop()).Command().Find([]string{"serve"})
	require.NoError(t, err)
	for _, name := range []string{"host", "port", "processors", "timeout", "throttle", "map-host", "metrics-path"} {
		assert.NotNil(t, serve.Flags().Lookup(name), name)
	}
	assert.Equal(t, "p", serve.Flags().Lookup("port").Shorthand)
}
