package gateway

import (
	"io"
	"strconv"
)

// ContentLength sets a Content-Length header on responses whose body has a
// known size, unless the status forbids a body or the application already
// chose a framing (Content-Length or Transfer-Encoding).
func ContentLength(next App) App {
	return AppFunc(func(env *Env) (Response, error) {
		res, err := next.Call(env)
		if err != nil {
			return res, err
		}
		if !BodyAllowed(res.Status) || res.Headers.Has("Content-Length") || res.Headers.Has("Transfer-Encoding") {
			return res, nil
		}
		sized, ok := res.Body.(Sized)
		if !ok {
			return res, nil
		}
		if res.Headers == nil {
			res.Headers = NewHeaders()
		}
		res.Headers.Set("Content-Length", strconv.FormatInt(sized.Size(), 10))
		return res, nil
	})
}

// Chunked applies chunked transfer framing to HTTP/1.1 responses that have
// neither Content-Length nor Transfer-Encoding.
func Chunked(next App) App {
	return AppFunc(func(env *Env) (Response, error) {
		res, err := next.Call(env)
		if err != nil {
			return res, err
		}
		if requestVersion(env) == "HTTP/1.0" || !BodyAllowed(res.Status) ||
			res.Headers.Has("Content-Length") || res.Headers.Has("Transfer-Encoding") {
			return res, nil
		}
		if res.Headers == nil {
			res.Headers = NewHeaders()
		}
		res.Headers.Set("Transfer-Encoding", "chunked")
		res.Body = &chunkedBody{inner: res.Body}
		return res, nil
	})
}

func requestVersion(env *Env) string {
	if v := env.String(HTTPVersion); v != "" {
		return v
	}
	return env.String(ServerProtocol)
}

const crlf = "\r\n"

// chunkedBody frames each non-empty inner chunk and appends the
// terminating zero-length chunk.
type chunkedBody struct {
	inner Body
	done  bool
}

func (b *chunkedBody) Next() ([]byte, error) {
	if b.done {
		return nil, io.EOF
	}
	for b.inner != nil {
		chunk, err := b.inner.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			continue
		}
		size := strconv.FormatInt(int64(len(chunk)), 16)
		out := make([]byte, 0, len(size)+len(chunk)+4)
		out = append(out, size...)
		out = append(out, crlf...)
		out = append(out, chunk...)
		out = append(out, crlf...)
		return out, nil
	}
	b.done = true
	return []byte("0" + crlf + crlf), nil
}

func (b *chunkedBody) Close() error {
	return Close(b.inner)
}
