// Package engine is the native HTTP/1.x server that envhttp runs on.
//
// The engine owns the listener, request parsing (delegated to net/http), the
// path registration table and per-connection error handling. Handlers see
// requests as a pre-parsed CGI-style parameter map plus a body stream, and
// drive responses through an explicit status / header / body protocol:
//
//	srv := engine.New(engine.DefaultOptions(), logger.L)
//	srv.Register("/app", handler)
//	err := srv.ListenAndServe(ctx)
package engine

import (
	"io"
)

// Request is the native request handed to a Handler.
type Request interface {
	// Params returns the parsed request metadata keyed by CGI variable name.
	// The map belongs to the caller.
	Params() map[string]string
	// Body returns the request body, or nil when the request has none.
	Body() io.Reader
}

// Flusher is the transport underneath a Response.
type Flusher interface {
	Flush() error
}

// Response is the native response handed to a Handler. Calls must follow
// the order SetStatus, SendStatus, AddHeader*, SendHeader, Write*.
type Response interface {
	SetStatus(code int)
	// SendStatus writes the status line using the default reason phrase.
	SendStatus() error
	// AddHeader registers one header line. Names may repeat.
	AddHeader(name, value string)
	// SendHeader writes every registered header line and the blank line.
	SendHeader() error
	Write(p []byte) (int, error)
	Transport() Flusher
}

// Handler processes one request. A returned error is handled by the engine.
type Handler interface {
	Process(req Request, res Response) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req Request, res Response) error

func (f HandlerFunc) Process(req Request, res Response) error { return f(req, res) }
