package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/response"
)

// Recovery catches a panic raised while the application builds its
// response, logs the stack trace, and answers 500 Internal Server Error.
// Panics from a body producer happen later, while the response streams,
// and are handled by the engine.
//
//	gateway.Chain(app, reqid.Middleware(), middleware.Logger, middleware.Recovery)
func Recovery(next gateway.App) gateway.App {
	return gateway.AppFunc(func(env *gateway.Env) (res gateway.Response, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromEnv(env).Error("panic recovered",
					"error", fmt.Sprintf("%v", rec),
					"stack", string(debug.Stack()),
					"method", env.String(gateway.RequestMethod),
					"path", env.String(gateway.ScriptName)+env.String(gateway.PathInfo),
				)
				res, err = response.Error(http.StatusInternalServerError, "Internal Server Error"), nil
			}
		}()
		return next.Call(env)
	})
}
