// Package routes builds the demo dispatch table served by cmd/envhttp.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/envhttp/app/controllers"
	"github.com/shashiranjanraj/envhttp/config"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/response"
	"github.com/shashiranjanraj/envhttp/pkg/static"
	"github.com/shashiranjanraj/envhttp/pkg/storage"
	"github.com/shashiranjanraj/envhttp/pkg/urlmap"
)

// Table returns the routing table:
//
//	/          greeting
//	/env       request environment as JSON
//	/events    SSE ticker
//	/static    files from the default storage disk (STATIC_PATH, empty disables)
func Table() *urlmap.URLMap {
	m := urlmap.New().
		MustMap("/", controllers.Hello).
		MustMap("/env", controllers.EnvDump).
		MustMap("/events", controllers.Events)

	if p := config.StaticPath(); p != "" {
		m.MustMap(p, Files)
	}
	return m
}

// Files serves the default disk. The disk is looked up per request since
// storage is connected after the table is built.
var Files = gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
	disk, err := storage.Default()
	if err != nil {
		logger.FromEnv(env).Warn("static files unavailable", "error", err.Error())
		return response.Error(http.StatusServiceUnavailable, "storage not configured"), nil
	}
	return static.New(disk).Call(env)
})
