// Package urlmap provides a routing table of (host, path, application)
// entries. A URLMap is both a dispatch source for bridge.Mount and an
// application in its own right that routes by host and path prefix.
//
//	m := urlmap.New()
//	m.MustMap("/", site)
//	m.MustMap("/api", api)
//	m.MustMap("http://admin.example.com/", admin)
package urlmap

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strings"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
)

// ErrLocation is returned for a location whose path does not start with "/".
var ErrLocation = errors.New("urlmap: paths need to start with /")

var hostLocation = regexp.MustCompile(`^https?://([^/]*)(/.*)?$`)

// Entry is one row of the routing table. Host is empty when the entry
// applies to every host.
type Entry struct {
	Host string
	Path string
	App  gateway.App
}

// URLMap is an ordered routing table. Build it before serving; it is
// read-only afterwards.
type URLMap struct {
	entries []Entry
	sorted  []Entry
}

// New returns an empty URLMap.
func New() *URLMap { return &URLMap{} }

// Map adds app at location, which is either a path ("/api") or an absolute
// URL carrying a host ("http://api.example.com/v1").
func (m *URLMap) Map(location string, app gateway.App) error {
	host := ""
	if sub := hostLocation.FindStringSubmatch(location); sub != nil {
		host, location = sub[1], sub[2]
		if location == "" {
			location = "/"
		}
	}
	if !strings.HasPrefix(location, "/") {
		return fmt.Errorf("%w: %q", ErrLocation, location)
	}
	if app == nil {
		return fmt.Errorf("urlmap: nil application for %q", location)
	}

	m.entries = append(m.entries, Entry{Host: host, Path: location, App: app})
	m.resort()
	return nil
}

// MustMap is Map that panics on error, for static table construction.
func (m *URLMap) MustMap(location string, app gateway.App) *URLMap {
	if err := m.Map(location, app); err != nil {
		panic(err)
	}
	return m
}

// Entries returns the table in insertion order.
func (m *URLMap) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// resort orders entries for matching: host-specific first (longer hosts
// first), then longer paths first.
func (m *URLMap) resort() {
	m.sorted = append(m.sorted[:0], m.entries...)
	sort.SliceStable(m.sorted, func(i, j int) bool {
		a, b := m.sorted[i], m.sorted[j]
		if len(a.Host) != len(b.Host) {
			return len(a.Host) > len(b.Host)
		}
		return len(strings.TrimRight(a.Path, "/")) > len(strings.TrimRight(b.Path, "/"))
	})
}

// Call routes env to the first entry matching the request host and
// PATH_INFO. The matched location is moved from PATH_INFO onto SCRIPT_NAME
// for the duration of the call.
func (m *URLMap) Call(env *gateway.Env) (gateway.Response, error) {
	path := env.String(gateway.PathInfo)
	script := env.String(gateway.ScriptName)
	reqHost := env.String(gateway.HTTPHost)
	if h, _, err := net.SplitHostPort(reqHost); err == nil {
		reqHost = h
	}
	serverName := env.String(gateway.ServerName)

	for _, e := range m.sorted {
		if e.Host != "" && e.Host != reqHost && e.Host != serverName {
			continue
		}
		location := strings.TrimRight(e.Path, "/")
		if !strings.HasPrefix(path, location) {
			continue
		}
		rest := path[len(location):]
		if rest != "" && rest[0] != '/' {
			continue
		}

		_, hadPath := env.Get(gateway.PathInfo)
		env.Set(gateway.ScriptName, script+location)
		env.Set(gateway.PathInfo, rest)
		res, err := e.App.Call(env)
		env.Set(gateway.ScriptName, script)
		if hadPath {
			env.Set(gateway.PathInfo, path)
		} else {
			env.Delete(gateway.PathInfo)
		}
		return res, err
	}

	return gateway.Response{
		Status:  404,
		Headers: gateway.NewHeaders("Content-Type", "text/plain", "X-Cascade", "pass"),
		Body:    gateway.Chunks("Not Found: " + path),
	}, nil
}
