package bridge

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/engine"
	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/urlmap"
)

// ErrConfig is returned by Mount for a target it cannot dispatch.
var ErrConfig = errors.New("bridge: dispatch target must be a gateway.App, a PathMap, a map[string]gateway.App or a *urlmap.URLMap")

// Registrar is the part of the native engine Mount needs.
type Registrar interface {
	Register(path string, h engine.Handler)
}

// Route binds an application to a path.
type Route struct {
	Path string
	App  gateway.App
}

// PathMap is an ordered path → application mapping.
type PathMap []Route

// Entry is one registered row of the dispatch table.
type Entry struct {
	Host string
	Path string
	App  gateway.App
}

// Mount registers target on reg and returns the dispatch table in
// registration order.
//
//   - *urlmap.URLMap: every entry, minus those bound to a host other than
//     the WithHost constraint.
//   - PathMap: every route in order.
//   - map[string]gateway.App: every route, in sorted path order.
//   - gateway.App: a single registration at "/".
//
// Paths are normalized to start with "/". Any other target is rejected
// with ErrConfig before anything is registered.
func Mount(reg Registrar, target any, opts ...Option) ([]Entry, error) {
	o := collect(opts)

	var entries []Entry
	switch t := target.(type) {
	case *urlmap.URLMap:
		if t == nil {
			return nil, fmt.Errorf("%w: got nil *urlmap.URLMap", ErrConfig)
		}
		for _, e := range t.Entries() {
			if e.Host != "" && o.host != "" && e.Host != o.host {
				continue
			}
			entries = append(entries, Entry{Host: e.Host, Path: NormalizePath(e.Path), App: e.App})
		}
	case PathMap:
		for _, r := range t {
			entries = append(entries, Entry{Path: NormalizePath(r.Path), App: r.App})
		}
	case map[string]gateway.App:
		paths := make([]string, 0, len(t))
		for p := range t {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			entries = append(entries, Entry{Path: NormalizePath(p), App: t[p]})
		}
	case gateway.App:
		entries = append(entries, Entry{Path: "/", App: t})
	default:
		return nil, fmt.Errorf("%w: got %T", ErrConfig, target)
	}

	for _, e := range entries {
		if e.App == nil {
			return nil, fmt.Errorf("%w: nil application at %q", ErrConfig, e.Path)
		}
	}
	for _, e := range entries {
		reg.Register(e.Path, New(e.App, opts...))
	}
	return entries, nil
}

// NormalizePath prefixes p with "/" when it lacks one.
func NormalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}
