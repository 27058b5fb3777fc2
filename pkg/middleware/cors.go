package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins []string // e.g. ["https://app.example.com"] or ["*"]
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int // seconds for preflight cache
}

// DefaultCORSOptions returns permissive options suited for local development.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}
}

// CORS returns a middleware that adds Cross-Origin Resource Sharing headers
// and answers preflight requests itself.
func CORS(opts CORSOptions) gateway.Middleware {
	methods := strings.Join(opts.AllowedMethods, ", ")
	headers := strings.Join(opts.AllowedHeaders, ", ")

	decorate := func(h *gateway.Headers, allowed string) {
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if opts.MaxAge > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(opts.MaxAge))
		}
		if allowed != "*" {
			h.Add("Vary", "Origin")
		}
	}

	return func(next gateway.App) gateway.App {
		return gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
			origin := env.Header("Origin")

			allowed := ""
			for _, o := range opts.AllowedOrigins {
				if o == "*" || (origin != "" && o == origin) {
					allowed = o
					break
				}
			}

			if env.String(gateway.RequestMethod) == http.MethodOptions {
				h := gateway.NewHeaders()
				if allowed != "" {
					decorate(h, allowed)
				}
				return gateway.Response{Status: http.StatusNoContent, Headers: h, Body: gateway.Empty()}, nil
			}

			res, err := next.Call(env)
			if err != nil || allowed == "" {
				return res, err
			}
			if res.Headers == nil {
				res.Headers = gateway.NewHeaders()
			}
			decorate(res.Headers, allowed)
			return res, nil
		})
	}
}
