// Package sse provides Server-Sent Events (SSE) response bodies.
//
// The producer runs in its own goroutine and hands each event to the
// server, which writes and flushes it before asking for the next one. When
// the client goes away the server releases the body, which cancels the
// producer's context:
//
//	func ticker(env *gateway.Env) (gateway.Response, error) {
//	    return sse.Response(sse.New(func(ctx context.Context, s *sse.Sender) error {
//	        for i := 0; i < 10; i++ {
//	            if err := s.Send("tick", map[string]any{"n": i}); err != nil {
//	                return err
//	            }
//	            time.Sleep(time.Second)
//	        }
//	        return nil
//	    })), nil
//	}
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// Producer writes events through s until it returns or ctx is cancelled.
type Producer func(ctx context.Context, s *Sender) error

// Stream is a gateway.Body fed by a Producer.
type Stream struct {
	ch     chan []byte
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	once   sync.Once
}

// New starts produce and returns the body that yields its events.
func New(produce Producer) *Stream {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Stream{
		ch:     make(chan []byte),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.ch)
		err := produce(ctx, &Sender{ctx: ctx, ch: s.ch})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.err = err
		}
	}()
	return s
}

// Next returns the next encoded event, or io.EOF once the producer returns.
func (s *Stream) Next() ([]byte, error) {
	b, ok := <-s.ch
	if !ok {
		if s.err != nil {
			return nil, fmt.Errorf("sse: producer: %w", s.err)
		}
		return nil, io.EOF
	}
	return b, nil
}

// Close cancels the producer and waits for it to return.
func (s *Stream) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}

// Response wraps s with the event-stream headers.
func Response(s *Stream) gateway.Response {
	return gateway.Response{
		Status: http.StatusOK,
		Headers: gateway.NewHeaders(
			"Content-Type", "text/event-stream",
			"Cache-Control", "no-cache",
			"X-Accel-Buffering", "no", // disable nginx buffering
		),
		Body: s,
	}
}

// ─── Sender ───────────────────────────────────────────────────────────────────

// Sender hands encoded events to the stream. Every method blocks until the
// server takes the event, and returns the context error once the stream
// has been released.
type Sender struct {
	ctx context.Context
	ch  chan<- []byte
}

// Send writes a named event with a JSON-encoded data payload.
func (s *Sender) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	return s.push(Encode(Event{Event: event, Data: string(payload)}))
}

// SendEvent writes ev as-is.
func (s *Sender) SendEvent(ev Event) error { return s.push(Encode(ev)) }

// SendRaw writes a data-only event.
func (s *Sender) SendRaw(data string) error { return s.push(Encode(Event{Data: data})) }

// Comment writes an SSE comment (useful as a keepalive heartbeat).
func (s *Sender) Comment(msg string) error {
	return s.push([]byte(": " + msg + "\n\n"))
}

func (s *Sender) push(b []byte) error {
	select {
	case s.ch <- b:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

// Event is one SSE message. Multi-line Data becomes several data: lines.
type Event struct {
	ID    string
	Event string
	Data  string
	Retry int // reconnection delay in milliseconds; 0 omits it
}

// Encode renders ev in the text/event-stream wire format.
func Encode(ev Event) []byte {
	var b strings.Builder
	if ev.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", ev.ID)
	}
	if ev.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", ev.Event)
	}
	if ev.Retry > 0 {
		fmt.Fprintf(&b, "retry: %d\n", ev.Retry)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return []byte(b.String())
}
