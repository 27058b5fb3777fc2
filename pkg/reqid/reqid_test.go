package reqid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/reqid"
)

func TestMiddleware_GeneratesAndEchoes(t *testing.T) {
	var seen string
	app := reqid.Middleware()(gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
		seen = reqid.FromEnv(env)
		return gateway.Response{Status: 200, Body: gateway.Empty()}, nil
	}))

	res, err := app.Call(gateway.NewEnv(0))
	require.NoError(t, err)
	assert.Len(t, seen, 32)
	assert.Equal(t, seen, res.Headers.Get(reqid.Header))
}

func TestMiddleware_ReusesClientID(t *testing.T) {
	env := gateway.NewEnv(1)
	env.Set("HTTP_X_REQUEST_ID", "upstream-42")

	app := reqid.Middleware()(gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 200, Headers: gateway.NewHeaders(), Body: gateway.Empty()}, nil
	}))
	res, err := app.Call(env)
	require.NoError(t, err)
	assert.Equal(t, "upstream-42", reqid.FromEnv(env))
	assert.Equal(t, "upstream-42", res.Headers.Get("x-request-id"))
}

func TestMiddleware_KeepsApplicationHeader(t *testing.T) {
	app := reqid.Middleware()(gateway.AppFunc(func(*gateway.Env) (gateway.Response, error) {
		return gateway.Response{Status: 200, Headers: gateway.NewHeaders(reqid.Header, "mine"), Body: gateway.Empty()}, nil
	}))
	res, err := app.Call(gateway.NewEnv(0))
	require.NoError(t, err)
	assert.Equal(t, "mine", res.Headers.Get(reqid.Header))
}

func TestNewIsUnique(t *testing.T) {
	assert.NotEqual(t, reqid.New(), reqid.New())
	assert.Empty(t, reqid.FromEnv(nil))
}
