package bridge

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// Emit drives res through the response protocol: status, status line,
// one header line per "\n"-separated segment of every header value, the
// header block, then every body chunk followed by a transport flush.
//
// The body is released exactly once on every exit path, including panics.
// A transmission error is returned after the release; a release error is
// joined onto it.
func Emit(res engine.Response, status int, headers *gateway.Headers, body gateway.Body) (err error) {
	defer func() {
		if cerr := gateway.Close(body); cerr != nil {
			err = errors.Join(err, fmt.Errorf("bridge: release body: %w", cerr))
		}
	}()

	res.SetStatus(status)
	if err := res.SendStatus(); err != nil {
		return fmt.Errorf("bridge: send status: %w", err)
	}

	headers.Each(func(name, value string) {
		for _, line := range strings.Split(value, "\n") {
			res.AddHeader(name, line)
		}
	})
	if err := res.SendHeader(); err != nil {
		return fmt.Errorf("bridge: send header: %w", err)
	}

	if body == nil {
		return nil
	}
	flusher := res.Transport()
	for {
		chunk, err := body.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("bridge: read body: %w", err)
		}
		if _, err := res.Write(chunk); err != nil {
			return fmt.Errorf("bridge: write body: %w", err)
		}
		if err := flusher.Flush(); err != nil {
			return fmt.Errorf("bridge: flush: %w", err)
		}
	}
}
