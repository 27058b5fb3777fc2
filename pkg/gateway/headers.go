package gateway

import (
	"strings"
)

// Headers is the ordered response header mapping. Lookups are
// case-insensitive; the casing of the first Set is what gets emitted.
//
// A value may hold several physical header lines joined with "\n", which is
// how repeated headers such as Set-Cookie travel through the convention.
type Headers struct {
	names  []string
	values map[string]string
	index  map[string]int
}

// NewHeaders builds Headers from name/value pairs. A trailing name without
// a value is ignored.
func NewHeaders(pairs ...string) *Headers {
	h := &Headers{
		values: make(map[string]string, len(pairs)/2),
		index:  make(map[string]int, len(pairs)/2),
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

func (h *Headers) init() {
	if h.values == nil {
		h.values = make(map[string]string)
		h.index = make(map[string]int)
	}
}

// Set replaces the value for name.
func (h *Headers) Set(name, value string) {
	h.init()
	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.values[h.names[i]] = value
		return
	}
	h.index[key] = len(h.names)
	h.names = append(h.names, name)
	h.values[name] = value
}

// Add appends value as another physical line of name.
func (h *Headers) Add(name, value string) {
	if cur, ok := h.Lookup(name); ok {
		h.Set(name, cur+"\n"+value)
		return
	}
	h.Set(name, value)
}

// Lookup returns the raw (possibly multi-line) value for name.
func (h *Headers) Lookup(name string) (string, bool) {
	if h == nil || h.index == nil {
		return "", false
	}
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return h.values[h.names[i]], true
}

// Get returns the raw value for name, or "".
func (h *Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Del removes name.
func (h *Headers) Del(name string) {
	if h == nil || h.index == nil {
		return
	}
	key := strings.ToLower(name)
	i, ok := h.index[key]
	if !ok {
		return
	}
	delete(h.values, h.names[i])
	delete(h.index, key)
	h.names = append(h.names[:i], h.names[i+1:]...)
	for j := i; j < len(h.names); j++ {
		h.index[strings.ToLower(h.names[j])] = j
	}
}

// Len returns the number of distinct header names.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// Each calls fn for every header in declared order with its raw value.
func (h *Headers) Each(fn func(name, value string)) {
	if h == nil {
		return
	}
	for _, name := range h.names {
		fn(name, h.values[name])
	}
}

// Lines splits the value of name into its physical header lines.
func (h *Headers) Lines(name string) []string {
	v, ok := h.Lookup(name)
	if !ok {
		return nil
	}
	return strings.Split(v, "\n")
}
