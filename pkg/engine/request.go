package engine

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Version is reported in SERVER_SOFTWARE.
const Version = "0.1.0"

// DefaultMaxBodyInMemory is the request body size above which the body is
// spooled to a temporary file.
const DefaultMaxBodyInMemory = 112 * 1024

type request struct {
	params map[string]string
	body   io.Reader
}

func (r *request) Params() map[string]string { return r.params }
func (r *request) Body() io.Reader           { return r.body }

// buildParams derives the CGI-style parameter map for a request routed to
// the handler registered at prefix.
func buildParams(r *http.Request, prefix, defaultPort string) map[string]string {
	p := make(map[string]string, len(r.Header)+16)

	for name, values := range r.Header {
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		p[key] = strings.Join(values, ", ")
	}
	if r.Host != "" {
		p["HTTP_HOST"] = r.Host
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		p["CONTENT_TYPE"] = ct
	}
	if r.ContentLength > 0 {
		p["CONTENT_LENGTH"] = strconv.FormatInt(r.ContentLength, 10)
	} else if cl := r.Header.Get("Content-Length"); cl != "" {
		p["CONTENT_LENGTH"] = cl
	}

	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	p["REQUEST_METHOD"] = r.Method
	p["REQUEST_URI"] = r.RequestURI
	p["REQUEST_PATH"] = path
	if r.URL.RawQuery != "" || r.URL.ForceQuery {
		p["QUERY_STRING"] = r.URL.RawQuery
	}
	p["HTTP_VERSION"] = r.Proto
	p["SERVER_PROTOCOL"] = r.Proto
	p["SERVER_SOFTWARE"] = "envhttp " + Version
	p["GATEWAY_INTERFACE"] = "CGI/1.2"

	host, port := splitHostPort(r.Host, defaultPort)
	p["SERVER_NAME"] = host
	p["SERVER_PORT"] = port
	if addr, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		p["REMOTE_ADDR"] = addr
	} else {
		p["REMOTE_ADDR"] = r.RemoteAddr
	}

	// The split happens on the form the router matched: RawPath when the
	// request carries a non-canonical escaping, Path otherwise.
	routed := r.URL.RawPath
	if routed == "" {
		routed = r.URL.Path
	}
	if routed == "" {
		routed = "/"
	}

	// The root registration keeps the whole path in PATH_INFO.
	if prefix == "/" {
		p["SCRIPT_NAME"] = "/"
		p["PATH_INFO"] = routed
	} else {
		p["SCRIPT_NAME"] = prefix
		p["PATH_INFO"] = strings.TrimPrefix(routed, prefix)
	}
	return p
}

func splitHostPort(hostport, defaultPort string) (string, string) {
	if hostport == "" {
		return "localhost", defaultPort
	}
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, defaultPort
	}
	return host, port
}

// spoolBody reads the request body before the handler runs: in memory up
// to max bytes, into a temporary file beyond that. The returned cleanup
// must be called once the request is finished.
func spoolBody(body io.Reader, max int64) (io.Reader, func(), error) {
	noop := func() {}
	if body == nil || body == http.NoBody {
		return nil, noop, nil
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(body, max+1))
	if err != nil {
		return nil, noop, fmt.Errorf("engine: read body: %w", err)
	}
	if n == 0 {
		return nil, noop, nil
	}
	if n <= max {
		return bytes.NewReader(buf.Bytes()), noop, nil
	}

	f, err := os.CreateTemp("", "envhttp-body-*")
	if err != nil {
		return nil, noop, fmt.Errorf("engine: spool body: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}
	if _, err := io.Copy(f, io.MultiReader(&buf, body)); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("engine: spool body: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("engine: spool body: %w", err)
	}
	return f, cleanup, nil
}
