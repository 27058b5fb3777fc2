package controllers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/app/controllers"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

func request(query string) *gateway.Env {
	env := gateway.NewEnv(6)
	env.Set(gateway.RequestMethod, "GET")
	env.Set(gateway.PathInfo, "/")
	env.Set(gateway.QueryString, query)
	return env
}

func TestHello(t *testing.T) {
	res, err := controllers.Hello.Call(request(""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)

	body, err := gateway.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello from envhttp!\n", string(body))
}

func TestEnvDump_KeepsOrder(t *testing.T) {
	env := request("a=1")
	env.Set(gateway.KeyInput, strings.NewReader(""))
	env.Set(gateway.KeyMultithread, true)
	env.Set(gateway.KeyVersion, gateway.Version)

	res, err := controllers.EnvDump.Call(env)
	require.NoError(t, err)

	data, err := gateway.ReadAll(res.Body)
	require.NoError(t, err)
	var out struct {
		Data []controllers.EnvVar `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, []controllers.EnvVar{
		{Key: gateway.RequestMethod, Value: "GET"},
		{Key: gateway.PathInfo, Value: "/"},
		{Key: gateway.QueryString, Value: "a=1"},
		{Key: gateway.KeyInput, Value: "*strings.Reader"},
		{Key: gateway.KeyMultithread, Value: "true"},
		{Key: gateway.KeyVersion, Value: "[0 1]"},
	}, out.Data)
}

func TestEvents_StreamsTicks(t *testing.T) {
	res, err := controllers.Events.Call(request("n=2&interval=10ms"))
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", res.Headers.Get("Content-Type"))

	body, err := gateway.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "id: 1\nevent: tick\ndata: 1\n\nid: 2\nevent: tick\ndata: 2\n\n", string(body))
}

func TestEvents_EarlyCloseStopsProducer(t *testing.T) {
	res, err := controllers.Events.Call(request("n=100&interval=1h"))
	require.NoError(t, err)

	chunk, err := res.Body.Next()
	require.NoError(t, err)
	assert.Contains(t, string(chunk), "data: 1")
	assert.NoError(t, gateway.Close(res.Body))
}

func TestEvents_RejectsBadQuery(t *testing.T) {
	for _, q := range []string{"n=0", "n=abc", "n=101", "interval=1ms", "interval=soon"} {
		res, err := controllers.Events.Call(request(q))
		require.NoError(t, err, q)
		assert.Equal(t, http.StatusBadRequest, res.Status, q)
	}
}
