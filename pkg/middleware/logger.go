package middleware

import (
	"time"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/logger"
	"github.com/shashiranjanraj/envhttp/pkg/reqid"
)

// Logger logs each application call with method, path, status, duration,
// client address and the request_id assigned by reqid.Middleware.
//
// Wire reqid.Middleware() BEFORE this middleware so the ID is in the
// environment when Logger runs.
//
//	gateway.Chain(app, reqid.Middleware(), middleware.Logger)
func Logger(next gateway.App) gateway.App {
	return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
		start := time.Now()

		// Every downstream logger.FromEnv(env) returns this logger.
		reqLog := logger.L.With("request_id", reqid.FromEnv(env))
		logger.Inject(env, reqLog)

		res, err := next.Call(env)

		attrs := []any{
			"method", env.String(gateway.RequestMethod),
			"path", env.String(gateway.ScriptName) + env.String(gateway.PathInfo),
			"duration", time.Since(start).String(),
			"ip", env.String(gateway.RemoteAddr),
		}
		if err != nil {
			reqLog.Error("request", append(attrs, "error", err.Error())...)
			return res, err
		}
		reqLog.Info("request", append(attrs, "status", res.Status)...)
		return res, nil
	})
}
