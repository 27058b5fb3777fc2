// Package bridge runs gateway applications on the native engine.
//
// It is the translation layer between the two conventions: BuildEnv turns
// an engine.Request into a gateway.Env, Emit turns a gateway.Response into
// calls on an engine.Response, Bridge glues the two around one application
// call, and Mount registers a whole dispatch table of applications.
//
// The layer is stateless per request; nothing here takes a lock.
package bridge

import (
	"io"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

type options struct {
	errs        io.Writer
	host        string
	middlewares []gateway.Middleware
}

// Option configures New and Mount.
type Option func(*options)

// WithErrorStream sets the stream exposed to applications under
// gateway.KeyErrors. The default is os.Stderr.
func WithErrorStream(w io.Writer) Option {
	return func(o *options) { o.errs = w }
}

// WithHost sets the target host constraint used when mounting a
// *urlmap.URLMap: entries bound to another host are skipped.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithMiddleware wraps every bridged application, inside the
// Content-Length and chunked framing layers.
func WithMiddleware(mws ...gateway.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Bridge exposes one application as an engine.Handler.
type Bridge struct {
	app  gateway.App
	errs io.Writer
}

var _ engine.Handler = (*Bridge)(nil)

// New wraps app. The result is framed by gateway.ContentLength and then
// gateway.Chunked, so Process never special-cases either concern.
func New(app gateway.App, opts ...Option) *Bridge {
	o := collect(opts)
	app = gateway.Chain(app, o.middlewares...)
	return &Bridge{
		app:  gateway.Chunked(gateway.ContentLength(app)),
		errs: o.errs,
	}
}

// Process handles one request: build the environment, call the
// application once, emit its response. An application error is returned
// unchanged and nothing is emitted.
func (b *Bridge) Process(req engine.Request, res engine.Response) error {
	env := BuildEnv(req, b.errs)

	result, err := b.app.Call(env)
	if err != nil {
		return err
	}
	return Emit(res, result.Status, result.Headers, result.Body)
}
