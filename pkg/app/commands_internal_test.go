package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

func TestServeOptions_CarriesHooksAndFlags(t *testing.T) {
	var seen []string
	a := New(gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 204}, nil
	})).
		Configure(func(*engine.Server) { seen = append(seen, "first") }).
		Configure(func(*engine.Server) { seen = append(seen, "second") }).
		Use(func(next gateway.App) gateway.App { return next })

	cmd := a.serveCmd()
	require.NoError(t, cmd.ParseFlags([]string{"-p", "9123", "-R", "4", "-T", "3", "-B", "2", "--map-host", "a.example"}))

	opts := a.serveOptions(cmd)
	assert.Equal(t, 9123, opts.Engine.Port)
	assert.Equal(t, 4, opts.Engine.Processors)
	assert.Equal(t, 3, opts.Engine.Timeout)
	assert.Equal(t, 2, opts.Engine.Throttle)
	assert.Equal(t, "a.example", opts.MapHost)
	assert.Len(t, opts.Middlewares, 1)

	require.Len(t, opts.Configure, 2)
	for _, fn := range opts.Configure {
		fn(nil)
	}
	assert.Equal(t, []string{"first", "second"}, seen)

	// The options own their slices.
	opts.Configure[0] = nil
	assert.NotNil(t, a.configure[0])
}
