package gateway

import (
	"bytes"
	"errors"
	"io"
)

// Body is the lazy, single-pass producer of response bytes.
//
// Next returns the next chunk, or io.EOF once the body is exhausted. A body
// that holds a resource (file, network stream) also implements io.Closer;
// whoever consumes the body calls Close exactly once when done, whether or
// not iteration finished.
type Body interface {
	Next() ([]byte, error)
}

// Sized is implemented by bodies whose total length is known up front.
type Sized interface {
	Size() int64
}

const readChunk = 32 * 1024

// ─── In-memory bodies ─────────────────────────────────────────────────────────

type sliceBody struct {
	parts [][]byte
	pos   int
	size  int64
}

// Chunks returns a known-length body yielding each part as one chunk.
func Chunks(parts ...string) Body {
	bs := make([][]byte, len(parts))
	for i, p := range parts {
		bs[i] = []byte(p)
	}
	return Bytes(bs...)
}

// Bytes is Chunks for byte slices. The slices are not copied.
func Bytes(parts ...[]byte) Body {
	var n int64
	for _, p := range parts {
		n += int64(len(p))
	}
	return &sliceBody{parts: parts, size: n}
}

// Empty returns a zero-length body.
func Empty() Body { return &sliceBody{} }

func (b *sliceBody) Next() ([]byte, error) {
	if b.pos >= len(b.parts) {
		return nil, io.EOF
	}
	p := b.parts[b.pos]
	b.pos++
	return p, nil
}

func (b *sliceBody) Size() int64 { return b.size }

// ─── Streamed bodies ──────────────────────────────────────────────────────────

type readerBody struct {
	r   io.Reader
	buf []byte
}

// Reader streams r in chunks of up to 32 KiB. Close closes r when r is an
// io.Closer.
func Reader(r io.Reader) Body {
	return &readerBody{r: r}
}

// SizedReader is Reader for a stream whose length is known, such as a file.
func SizedReader(r io.Reader, size int64) Body {
	return &sizedReaderBody{readerBody: readerBody{r: r}, size: size}
}

func (b *readerBody) Next() ([]byte, error) {
	if b.buf == nil {
		b.buf = make([]byte, readChunk)
	}
	for {
		n, err := b.r.Read(b.buf)
		if n > 0 {
			out := make([]byte, n)
			copy(out, b.buf[:n])
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (b *readerBody) Close() error {
	if c, ok := b.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type sizedReaderBody struct {
	readerBody
	size int64
}

func (b *sizedReaderBody) Size() int64 { return b.size }

// FuncBody adapts a generator function to Body. The function returns
// io.EOF when it has nothing more to produce.
type FuncBody func() ([]byte, error)

func (f FuncBody) Next() ([]byte, error) { return f() }

// ─── Helpers ──────────────────────────────────────────────────────────────────

// Close releases b when it implements io.Closer.
func Close(b Body) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Each iterates b, calling fn for every chunk. It does not close b.
func Each(b Body, fn func([]byte) error) error {
	if b == nil {
		return nil
	}
	for {
		chunk, err := b.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
}

// ReadAll drains b into a single slice and closes it.
func ReadAll(b Body) ([]byte, error) {
	var buf bytes.Buffer
	err := Each(b, func(p []byte) error {
		buf.Write(p)
		return nil
	})
	if cerr := Close(b); err == nil {
		err = cerr
	}
	return buf.Bytes(), err
}
