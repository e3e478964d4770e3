// Package environ models the environment handed to child processes: a base
// snapshot of KEY=VALUE pairs with an immutable overlay of resolved variables.
package environ

import (
	"os"
	"sort"
	"strings"
)

// Env is an immutable view of a base environment plus overlay values.
// With and Merge return new values and never touch the receiver.
type Env struct {
	base    map[string]string
	overlay map[string]string
	order   []string
}

// FromOS snapshots the current process environment.
func FromOS() Env {
	return FromPairs(os.Environ())
}

// FromPairs builds an Env from KEY=VALUE strings, as returned by os.Environ.
func FromPairs(pairs []string) Env {
	base := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		base[key] = value
	}
	return Env{base: base}
}

// Lookup returns the overlay value for key, falling back to the base environment.
func (e Env) Lookup(key string) (string, bool) {
	if v, ok := e.overlay[key]; ok {
		return v, true
	}
	v, ok := e.base[key]
	return v, ok
}

// Get returns the value for key or the empty string.
func (e Env) Get(key string) string {
	v, _ := e.Lookup(key)
	return v
}

// LookupBase ignores the overlay.
func (e Env) LookupBase(key string) (string, bool) {
	v, ok := e.base[key]
	return v, ok
}

// With returns a copy of e with key set in the overlay.
func (e Env) With(key, value string) Env {
	next := e.clone()
	next.set(key, value)
	return next
}

// Merge returns a copy of e with every entry of vars set in the overlay.
// Keys are applied in sorted order so the overlay order stays deterministic.
func (e Env) Merge(vars map[string]string) Env {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := e.clone()
	for _, k := range keys {
		next.set(k, vars[k])
	}
	return next
}

// Overlay returns a copy of the overlay values.
func (e Env) Overlay() map[string]string {
	out := make(map[string]string, len(e.overlay))
	for k, v := range e.overlay {
		out[k] = v
	}
	return out
}

// Environ renders the environment as KEY=VALUE pairs, base entries first in
// sorted order followed by overlay-only keys in the order they were added.
func (e Env) Environ() []string {
	keys := make([]string, 0, len(e.base))
	for k := range e.base {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys)+len(e.order))
	for _, k := range keys {
		out = append(out, k+"="+e.Get(k))
	}
	for _, k := range e.order {
		if _, inBase := e.base[k]; inBase {
			continue
		}
		out = append(out, k+"="+e.overlay[k])
	}
	return out
}

// Names returns every variable name, sorted.
func (e Env) Names() []string {
	names := make([]string, 0, len(e.base)+len(e.order))
	for k := range e.base {
		names = append(names, k)
	}
	for _, k := range e.order {
		if _, inBase := e.base[k]; !inBase {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (e Env) clone() Env {
	next := Env{
		base:    e.base,
		overlay: make(map[string]string, len(e.overlay)+1),
		order:   append([]string(nil), e.order...),
	}
	for k, v := range e.overlay {
		next.overlay[k] = v
	}
	return next
}

func (e *Env) set(key, value string) {
	if _, exists := e.overlay[key]; !exists {
		e.order = append(e.order, key)
	}
	e.overlay[key] = value
}
