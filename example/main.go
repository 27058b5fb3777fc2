// Package main is an example of a minimal project served by envhttp.
//
// To run this example:
//
//	cd example
//	go run . serve -p 8080
//	# Then: curl http://localhost:8080/hello
package main

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/envhttp/pkg/app"
	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/response"
)

func main() {
	app.New(bridge.PathMap{
		{Path: "/hello", App: gateway.AppFunc(helloHandler)},
		{Path: "/ping", App: gateway.AppFunc(pingHandler)},
	}).
		// Plain net/http endpoints can live beside the gateway apps.
		Configure(func(s *engine.Server) {
			s.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
		}).
		Run()
}

// ─── Example Handlers ─────────────────────────────────────────────────────────

func helloHandler(env *gateway.Env) (gateway.Response, error) {
	return response.Success(map[string]string{
		"message": "Hello from envhttp!",
		"script":  env.String(gateway.ScriptName),
		"path":    env.String(gateway.PathInfo),
	}), nil
}

func pingHandler(*gateway.Env) (gateway.Response, error) {
	return response.JSON(http.StatusOK, map[string]string{
		"pong": time.Now().UTC().Format(time.RFC3339),
	}), nil
}
