// Package controllers holds the demo applications mounted by app/routes.
package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/response"
)

// Hello answers every request with a fixed greeting.
var Hello = gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
	logger.FromEnv(env).Debug("hello", "path", env.String(gateway.PathInfo))
	return response.Text(http.StatusOK, "Hello from envhttp!\n"), nil
})
