// Package gateway defines the server-agnostic calling convention that
// applications are written against.
//
// An application receives a per-request *Env (CGI-style variables plus the
// input and error streams) and returns a Response made of a status code, an
// ordered header set and a lazy Body:
//
//	hello := gateway.AppFunc(func(env *gateway.Env) (gateway.Response, error) {
//	    return gateway.Response{
//	        Status:  200,
//	        Headers: gateway.NewHeaders("Content-Type", "text/plain"),
//	        Body:    gateway.Chunks("hello"),
//	    }, nil
//	})
//
// Nothing in this package knows about sockets or a concrete HTTP server;
// pkg/bridge translates between this convention and pkg/engine.
package gateway

import (
	"io"
	"strings"
)

// CGI-style variable names.
const (
	RequestMethod    = "REQUEST_METHOD"
	RequestURI       = "REQUEST_URI"
	RequestPath      = "REQUEST_PATH"
	ScriptName       = "SCRIPT_NAME"
	PathInfo         = "PATH_INFO"
	QueryString      = "QUERY_STRING"
	ServerName       = "SERVER_NAME"
	ServerPort       = "SERVER_PORT"
	ServerProtocol   = "SERVER_PROTOCOL"
	ServerSoftware   = "SERVER_SOFTWARE"
	HTTPVersion      = "HTTP_VERSION"
	HTTPHost         = "HTTP_HOST"
	RemoteAddr       = "REMOTE_ADDR"
	ContentType      = "CONTENT_TYPE"
	ContentLengthVar = "CONTENT_LENGTH"
	Gateway          = "GATEWAY_INTERFACE"
)

// Protocol keys injected by the bridge on every request.
const (
	KeyVersion      = "gateway.version"
	KeyInput        = "gateway.input"
	KeyErrors       = "gateway.errors"
	KeyMultithread  = "gateway.multithread"
	KeyMultiprocess = "gateway.multiprocess"
	KeyRunOnce      = "gateway.run_once"
	KeyURLScheme    = "gateway.url_scheme"
)

// Version is the calling-convention version advertised under KeyVersion.
var Version = [2]int{0, 1}

// Env is the Normalized Environment: an insertion-ordered map from string
// keys to values. Values are strings for CGI variables; the protocol keys
// hold an io.Reader, an io.Writer, booleans and Version.
//
// An Env is built fresh for each request and is not safe for concurrent use.
type Env struct {
	keys []string
	vals map[string]any
}

// NewEnv returns an empty Env with room for n keys.
func NewEnv(n int) *Env {
	return &Env{
		keys: make([]string, 0, n),
		vals: make(map[string]any, n),
	}
}

// Set stores v under key. Setting an existing key keeps its position.
func (e *Env) Set(key string, v any) {
	if _, ok := e.vals[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.vals[key] = v
}

// Get returns the value stored under key.
func (e *Env) Get(key string) (any, bool) {
	v, ok := e.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (e *Env) Has(key string) bool {
	_, ok := e.vals[key]
	return ok
}

// String returns the string stored under key, or "" when the key is absent
// or holds a non-string value.
func (e *Env) String(key string) string {
	s, _ := e.vals[key].(string)
	return s
}

// Delete removes key. Deleting a missing key is a no-op.
func (e *Env) Delete(key string) {
	if _, ok := e.vals[key]; !ok {
		return
	}
	delete(e.vals, key)
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i], e.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (e *Env) Len() int { return len(e.keys) }

// Keys returns the keys in insertion order.
func (e *Env) Keys() []string {
	return append([]string(nil), e.keys...)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (e *Env) Each(fn func(key string, v any) bool) {
	for _, k := range e.keys {
		if !fn(k, e.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy. Stream values are shared.
func (e *Env) Clone() *Env {
	c := NewEnv(len(e.keys))
	for _, k := range e.keys {
		c.Set(k, e.vals[k])
	}
	return c
}

// Input returns the request body stream. It never returns nil.
func (e *Env) Input() io.Reader {
	if r, ok := e.vals[KeyInput].(io.Reader); ok && r != nil {
		return r
	}
	return strings.NewReader("")
}

// Errors returns the error-reporting stream. It never returns nil.
func (e *Env) Errors() io.Writer {
	if w, ok := e.vals[KeyErrors].(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}

// Header returns the value of the request header name as carried in the
// HTTP_* variables. Content-Type and Content-Length are read from their
// dedicated CGI keys.
func (e *Env) Header(name string) string {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	switch key {
	case "CONTENT_TYPE", "CONTENT_LENGTH":
		return e.String(key)
	}
	return e.String("HTTP_" + key)
}
