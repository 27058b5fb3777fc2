package engine

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

var headerSanitizer = strings.NewReplacer("\r", " ", "\n", " ")

type headerLine struct {
	name, value string
}

// response writes straight to the client connection. The connection is
// hijacked from net/http when the status line is sent, so the bytes on the
// wire are exactly the status line, the header lines and the body the
// handler produced. Every response closes the connection.
type response struct {
	w      http.ResponseWriter
	conn   net.Conn
	bw     *bufio.Writer
	isHead bool

	status     int
	header     []headerLine
	statusSent bool
	headerSent bool
	written    int64
}

func newResponse(w http.ResponseWriter, isHead bool) *response {
	return &response{w: w, isHead: isHead, status: http.StatusOK}
}

func (r *response) SetStatus(code int) { r.status = code }

func (r *response) SendStatus() error {
	if r.statusSent {
		return nil
	}
	if err := r.hijack(); err != nil {
		return err
	}
	reason := http.StatusText(r.status)
	if reason == "" {
		reason = "Unknown"
	}
	if _, err := fmt.Fprintf(r.bw, "HTTP/1.1 %d %s\r\nConnection: close\r\n", r.status, reason); err != nil {
		return fmt.Errorf("engine: write status: %w", err)
	}
	r.statusSent = true
	return nil
}

func (r *response) AddHeader(name, value string) {
	r.header = append(r.header, headerLine{
		name:  headerSanitizer.Replace(name),
		value: headerSanitizer.Replace(value),
	})
}

func (r *response) SendHeader() error {
	if r.headerSent {
		return nil
	}
	if err := r.SendStatus(); err != nil {
		return err
	}
	for _, h := range r.header {
		if _, err := fmt.Fprintf(r.bw, "%s: %s\r\n", h.name, h.value); err != nil {
			return fmt.Errorf("engine: write header: %w", err)
		}
	}
	if _, err := r.bw.WriteString("\r\n"); err != nil {
		return fmt.Errorf("engine: write header: %w", err)
	}
	r.headerSent = true
	return nil
}

func (r *response) Write(p []byte) (int, error) {
	if !r.headerSent {
		if err := r.SendHeader(); err != nil {
			return 0, err
		}
	}
	if r.isHead {
		return len(p), nil
	}
	n, err := r.bw.Write(p)
	r.written += int64(n)
	if err != nil {
		return n, fmt.Errorf("engine: write body: %w", err)
	}
	return n, nil
}

func (r *response) Transport() Flusher { return transport{r} }

type transport struct{ r *response }

func (t transport) Flush() error {
	if t.r.bw == nil {
		return nil
	}
	if err := t.r.bw.Flush(); err != nil {
		return fmt.Errorf("engine: flush: %w", err)
	}
	return nil
}

func (r *response) hijack() error {
	if r.conn != nil {
		return nil
	}
	conn, rw, err := http.NewResponseController(r.w).Hijack()
	if err != nil {
		return fmt.Errorf("engine: hijack: %w", err)
	}
	// Long-lived streams must not trip the read timeout that net/http
	// armed for the request.
	_ = conn.SetDeadline(time.Time{})
	r.conn = conn
	r.bw = rw.Writer
	return nil
}

// finish flushes whatever is buffered and closes the hijacked connection.
func (r *response) finish() {
	if r.conn == nil {
		return
	}
	_ = r.bw.Flush()
	_ = r.conn.Close()
	r.conn = nil
}
