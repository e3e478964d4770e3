package resolver

import (
	"fmt"
	"regexp"
	"strings"
)

// refPattern matches \$ escapes, ${NAME}, ${NAME:-default} and $NAME.
var refPattern = regexp.MustCompile(`\\\$|\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Expand replaces references in s using lookup. Unknown names expand to the
// default when one is given, else to the empty string.
func Expand(s string, lookup func(name string) (string, bool)) string {
	return refPattern.ReplaceAllStringFunc(s, func(match string) string {
		if match == `\$` {
			return "$"
		}
		groups := refPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[2]
		if name == "" {
			name = groups[3]
		}
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return def
	})
}

// References returns the names referenced without a default in s, in order.
func References(s string) []string {
	var names []string
	for _, groups := range refPattern.FindAllStringSubmatch(s, -1) {
		if groups[0] == `\$` || strings.Contains(groups[0], ":-") {
			continue
		}
		name := groups[1]
		if name == "" {
			name = groups[3]
		}
		names = append(names, name)
	}
	return names
}

// expand resolves references in every file-provided value. A referenced key
// is expanded before its value is used, so chains resolve regardless of the
// order keys were read in. A key reached again while it is being expanded is
// a cycle: the reference falls back to the process environment or expands
// to empty.
func (r *Resolution) expand(processLookup LookupFunc, override bool) {
	e := &expander{
		r:        r,
		process:  processLookup,
		override: override,
		visiting: make(map[string]bool),
		done:     make(map[string]bool),
	}
	for _, v := range r.Variables {
		e.resolve(v)
	}
}

type expander struct {
	r        *Resolution
	process  LookupFunc
	override bool
	visiting map[string]bool
	done     map[string]bool
}

func (e *expander) lookup(name string) (string, bool) {
	if !e.override {
		if v, ok := e.process(name); ok {
			return v, true
		}
	}
	if v, ok := e.r.ByName[name]; ok && !e.visiting[name] {
		return e.resolve(v), true
	}
	return e.process(name)
}

func (e *expander) resolve(v *Variable) string {
	last := &v.Chain[len(v.Chain)-1]
	if last.Layer == LayerOSEnv || last.Layer == LayerMode || e.done[v.Name] {
		return last.Value
	}

	e.visiting[v.Name] = true
	raw := last.Value
	for _, ref := range References(raw) {
		if e.visiting[ref] {
			if _, ok := e.process(ref); !ok {
				e.r.Warnings = append(e.r.Warnings, fmt.Sprintf("%s has a cyclic reference to %s", v.Name, ref))
			}
			continue
		}
		if _, ok := e.lookup(ref); !ok {
			e.r.Undefined = append(e.r.Undefined, ref)
			e.r.Warnings = append(e.r.Warnings, fmt.Sprintf("%s references undefined variable %s", v.Name, ref))
		}
	}
	expanded := Expand(raw, e.lookup)
	delete(e.visiting, v.Name)
	e.done[v.Name] = true

	if expanded != raw {
		last.Raw = raw
		last.Value = expanded
		v.FinalValue = expanded
	}
	return last.Value
}
