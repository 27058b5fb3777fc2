// Package reqid provides request ID generation and propagation.
//
// A unique ID is generated for every request, stored in the request
// environment, echoed in the X-Request-ID response header, and included in
// every structured log line via logger.FromEnv(env).
//
// Reading inside an application:
//
//	id := reqid.FromEnv(env)
package reqid

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// Header is the HTTP header name used to propagate the request ID.
const Header = "X-Request-ID"

// EnvKey is the environment key holding the request ID.
const EnvKey = "envhttp.request_id"

// incoming is the environment key of the client-supplied header.
const incoming = "HTTP_X_REQUEST_ID"

// New generates a cryptographically random 16-byte (32 hex char) request ID.
func New() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FromEnv extracts the request ID from env.
// Returns an empty string if none is present.
func FromEnv(env *gateway.Env) string {
	if env == nil {
		return ""
	}
	return env.String(EnvKey)
}

// Middleware assigns every request an ID:
//
//   - If the client sends X-Request-ID, that value is reused.
//   - Otherwise a new random ID is generated.
//
// The ID is set on the response unless the application already set one.
func Middleware() gateway.Middleware {
	return func(next gateway.App) gateway.App {
		return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
			id := env.String(incoming)
			if id == "" {
				id = New()
			}
			env.Set(EnvKey, id)

			res, err := next.Call(env)
			if err != nil {
				return res, err
			}
			if res.Headers == nil {
				res.Headers = gateway.NewHeaders()
			}
			if !res.Headers.Has(Header) {
				res.Headers.Set(Header, id)
			}
			return res, nil
		})
	}
}
