// Package enginetest provides in-memory engine.Request and engine.Response
// implementations for testing handlers without a network connection.
package enginetest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
)

// Request is a canned engine.Request.
type Request struct {
	ParamMap map[string]string
	Input    io.Reader
}

// NewRequest builds a Request the way the engine would for a GET of path
// routed to the root registration.
func NewRequest(method, path string) *Request {
	uri := path
	query := ""
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	p := map[string]string{
		"REQUEST_METHOD":    method,
		"REQUEST_URI":       uri,
		"REQUEST_PATH":      path,
		"SCRIPT_NAME":       "/",
		"PATH_INFO":         path,
		"SERVER_NAME":       "localhost",
		"SERVER_PORT":       "8080",
		"SERVER_PROTOCOL":   "HTTP/1.1",
		"HTTP_VERSION":      "HTTP/1.1",
		"HTTP_HOST":         "localhost:8080",
		"GATEWAY_INTERFACE": "CGI/1.2",
		"REMOTE_ADDR":       "127.0.0.1",
	}
	if query != "" {
		p["QUERY_STRING"] = query
	}
	return &Request{ParamMap: p}
}

func (r *Request) Params() map[string]string {
	out := make(map[string]string, len(r.ParamMap))
	for k, v := range r.ParamMap {
		out[k] = v
	}
	return out
}

func (r *Request) Body() io.Reader { return r.Input }

// Header is one recorded header line.
type Header struct {
	Name, Value string
}

// Recorder is an engine.Response that records every call.
//
// Calls holds the call sequence ("status", "send_status", "header",
// "send_header", "write", "flush") so tests can assert protocol order.
type Recorder struct {
	Code    int
	Headers []Header
	Body    bytes.Buffer
	Chunks  []string
	Calls   []string
	Flushes int

	// FailOn makes the named call return ErrInjected.
	FailOn string
	// FailAfter lets that many calls to FailOn succeed first.
	FailAfter int
}

// ErrInjected is returned by calls selected with FailOn.
var ErrInjected = errors.New("enginetest: injected failure")

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) fail(call string) error {
	if r.FailOn != call {
		return nil
	}
	if r.FailAfter > 0 {
		r.FailAfter--
		return nil
	}
	return ErrInjected
}

func (r *Recorder) SetStatus(code int) {
	r.Code = code
	r.Calls = append(r.Calls, "status")
}

func (r *Recorder) SendStatus() error {
	r.Calls = append(r.Calls, "send_status")
	return r.fail("send_status")
}

func (r *Recorder) AddHeader(name, value string) {
	r.Calls = append(r.Calls, "header")
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

func (r *Recorder) SendHeader() error {
	r.Calls = append(r.Calls, "send_header")
	return r.fail("send_header")
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.Calls = append(r.Calls, "write")
	if err := r.fail("write"); err != nil {
		return 0, err
	}
	r.Chunks = append(r.Chunks, string(p))
	return r.Body.Write(p)
}

func (r *Recorder) Transport() engine.Flusher { return recorderTransport{r} }

type recorderTransport struct{ r *Recorder }

func (t recorderTransport) Flush() error {
	t.r.Calls = append(t.r.Calls, "flush")
	if err := t.r.fail("flush"); err != nil {
		return err
	}
	t.r.Flushes++
	return nil
}

// HeaderValues returns every recorded value for name, in order.
func (r *Recorder) HeaderValues(name string) []string {
	var out []string
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			out = append(out, h.Value)
		}
	}
	return out
}

// StatusLine renders the status line the engine would send.
func (r *Recorder) StatusLine() string {
	return fmt.Sprintf("HTTP/1.1 %d %s", r.Code, http.StatusText(r.Code))
}
