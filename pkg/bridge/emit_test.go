package bridge_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/bridge"
	"github.com/shashiranjanraj/envhttp/pkg/engine/enginetest"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// trackedBody yields parts and counts Close calls.
type trackedBody struct {
	parts    []string
	next     int
	closed   int
	failAt   int // 1-based index of the chunk that fails; 0 never
	closeErr error
}

func (b *trackedBody) Next() ([]byte, error) {
	if b.failAt > 0 && b.next+1 == b.failAt {
		return nil, errors.New("producer broke")
	}
	if b.next >= len(b.parts) {
		return nil, io.EOF
	}
	p := b.parts[b.next]
	b.next++
	return []byte(p), nil
}

func (b *trackedBody) Close() error {
	b.closed++
	return b.closeErr
}

func TestEmit_ProtocolOrder(t *testing.T) {
	rec := enginetest.NewRecorder()
	body := &trackedBody{parts: []string{"a", "b"}}

	err := bridge.Emit(rec, 201, gateway.NewHeaders("Content-Type", "text/plain", "X-Id", "7"), body)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"status", "send_status",
		"header", "header", "send_header",
		"write", "flush",
		"write", "flush",
	}, rec.Calls)
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, []enginetest.Header{{Name: "Content-Type", Value: "text/plain"}, {Name: "X-Id", Value: "7"}}, rec.Headers)
	assert.Equal(t, []string{"a", "b"}, rec.Chunks)
	assert.Equal(t, 2, rec.Flushes)
	assert.Equal(t, 1, body.closed)
}

func TestEmit_SplitsMultiLineHeaders(t *testing.T) {
	for n := 0; n <= 3; n++ {
		values := make([]string, n+1)
		for i := range values {
			values[i] = "c" + strings.Repeat("x", i) + "=1"
		}
		headers := gateway.NewHeaders("Set-Cookie", strings.Join(values, "\n"), "X-After", "yes")
		rec := enginetest.NewRecorder()

		require.NoError(t, bridge.Emit(rec, 200, headers, gateway.Empty()))

		assert.Equal(t, values, rec.HeaderValues("Set-Cookie"), "%d newlines", n)
		assert.Equal(t, "X-After", rec.Headers[len(rec.Headers)-1].Name)
	}
}

func TestEmit_ReleasesBodyOnEveryPath(t *testing.T) {
	cases := []struct {
		name   string
		failOn string
		failAt int
	}{
		{"success", "", 0},
		{"send status fails", "send_status", 0},
		{"send header fails", "send_header", 0},
		{"write fails", "write", 0},
		{"flush fails", "flush", 0},
		{"producer fails", "", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := enginetest.NewRecorder()
			rec.FailOn = tc.failOn
			body := &trackedBody{parts: []string{"one", "two", "three"}, failAt: tc.failAt}

			err := bridge.Emit(rec, 200, gateway.NewHeaders(), body)
			if tc.failOn == "" && tc.failAt == 0 {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
			if tc.failOn != "" {
				assert.ErrorIs(t, err, enginetest.ErrInjected)
			}
			assert.Equal(t, 1, body.closed)
		})
	}
}

func TestEmit_ReleasesBodyWhenWriterPanics(t *testing.T) {
	body := &trackedBody{parts: []string{"x"}}
	res := &panickyRecorder{Recorder: enginetest.NewRecorder()}

	assert.Panics(t, func() {
		_ = bridge.Emit(res, 200, nil, body)
	})
	assert.Equal(t, 1, body.closed)
}

type panickyRecorder struct {
	*enginetest.Recorder
}

func (p *panickyRecorder) Write([]byte) (int, error) { panic("socket exploded") }

func TestEmit_JoinsReleaseError(t *testing.T) {
	rec := enginetest.NewRecorder()
	rec.FailOn = "write"
	closeErr := errors.New("close failed")
	body := &trackedBody{parts: []string{"x"}, closeErr: closeErr}

	err := bridge.Emit(rec, 200, nil, body)
	assert.ErrorIs(t, err, enginetest.ErrInjected)
	assert.ErrorIs(t, err, closeErr)
}

func TestEmit_StopsAtFirstWriteFailure(t *testing.T) {
	rec := enginetest.NewRecorder()
	rec.FailOn = "write"
	rec.FailAfter = 1
	body := &trackedBody{parts: []string{"one", "two", "three"}}

	err := bridge.Emit(rec, 200, nil, body)
	require.Error(t, err)
	assert.Equal(t, []string{"one"}, rec.Chunks)
	assert.Equal(t, 1, rec.Flushes)
}

func TestEmit_NilHeadersAndBody(t *testing.T) {
	rec := enginetest.NewRecorder()
	require.NoError(t, bridge.Emit(rec, 204, nil, nil))
	assert.Equal(t, []string{"status", "send_status", "send_header"}, rec.Calls)
}
