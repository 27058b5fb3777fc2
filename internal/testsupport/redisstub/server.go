// Package redisstub is a tiny RESP2 server for tests. It understands the
// handful of commands the rate-limit store and the cache boot use.
package redisstub

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value  int64
	expiry time.Time
}

type Server struct {
	listener net.Listener
	mu       sync.Mutex
	kv       map[string]*entry
	closed   chan struct{}
}

// Start listens on a random loopback port.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{listener: ln, kv: map[string]*entry{}, closed: make(chan struct{})}
	go s.serve()
	return s, nil
}

func (s *Server) Addr() string { return s.listener.Addr().String() }

func (s *Server) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
		close(s.closed)
	}
	return s.listener.Close()
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
				continue
			}
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	for {
		args, err := readArray(r)
		if err != nil {
			return
		}
		if len(args) == 0 {
			fmt.Fprint(w, "-ERR empty command\r\n")
		} else {
			s.dispatch(w, args)
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(w *bufio.Writer, args []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	live := func(key string) *entry {
		e, ok := s.kv[key]
		if !ok {
			return nil
		}
		if !e.expiry.IsZero() && now.After(e.expiry) {
			delete(s.kv, key)
			return nil
		}
		return e
	}

	switch strings.ToUpper(args[0]) {
	case "PING":
		fmt.Fprint(w, "+PONG\r\n")
	case "AUTH", "SELECT", "CLIENT":
		fmt.Fprint(w, "+OK\r\n")
	case "INCR":
		e := live(args[1])
		if e == nil {
			e = &entry{}
			s.kv[args[1]] = e
		}
		e.value++
		fmt.Fprintf(w, ":%d\r\n", e.value)
	case "PEXPIRE":
		e := live(args[1])
		if e == nil {
			fmt.Fprint(w, ":0\r\n")
			return
		}
		ms, _ := strconv.ParseInt(args[2], 10, 64)
		e.expiry = now.Add(time.Duration(ms) * time.Millisecond)
		fmt.Fprint(w, ":1\r\n")
	case "PTTL":
		e := live(args[1])
		switch {
		case e == nil:
			fmt.Fprint(w, ":-2\r\n")
		case e.expiry.IsZero():
			fmt.Fprint(w, ":-1\r\n")
		default:
			fmt.Fprintf(w, ":%d\r\n", e.expiry.Sub(now).Milliseconds())
		}
	default:
		fmt.Fprintf(w, "-ERR unknown command '%s'\r\n", args[0])
	}
}

func readArray(r *bufio.Reader) ([]string, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, errors.New("redisstub: expected array")
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		head, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(head, "$") {
			return nil, errors.New("redisstub: expected bulk string")
		}
		size, err := strconv.Atoi(head[1:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}
