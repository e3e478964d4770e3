// Package placeholder rewrites @@-delimited tokens in command arguments with
// values from the environment.
//
// A token has the form
//
//	@@NAMES[@:SUFFIX]
//	@@NAMES@:DEFAULT@:SUFFIX
//
// optionally closed by a trailing @@. NAMES is a comma-separated list of
// fallback variable names; within a name, colon-separated segments at odd
// positions are replaced by the value of the variable they name, so
// @@DB_:STAGE:_URL@@ reads DB_<value of STAGE>_URL.
package placeholder

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/stackgen-cli/envmode/internal/model"
)

const (
	// Delimiter starts a token.
	Delimiter = "@@"
	// FieldSeparator separates names, default and suffix.
	FieldSeparator = "@:"
	// AssignPrefix marks a whole argument as a NAME=VALUE assignment.
	AssignPrefix = "@="
)

// LookupFunc returns the value of a variable, or "" when it is unset.
type LookupFunc func(name string) string

// Token is a parsed placeholder.
type Token struct {
	Raw        string
	Names      []string
	Default    string
	HasDefault bool
	Suffix     string
}

// ParseToken parses the text between two delimiters.
func ParseToken(raw string) (Token, error) {
	fields := strings.Split(raw, FieldSeparator)
	tok := Token{Raw: raw}

	switch len(fields) {
	case 1:
	case 2:
		tok.Suffix = fields[1]
	case 3:
		tok.Default, tok.HasDefault = fields[1], true
		tok.Suffix = fields[2]
	default:
		return Token{}, model.NewConfigError("invalid placeholder '%s%s': too many %q fields", Delimiter, raw, FieldSeparator).
			WithHint("use @@NAME@:<default>@:<suffix>")
	}

	if fields[0] == "" {
		return Token{}, model.NewConfigError("invalid placeholder '%s%s': please specify an ENV var name after %s", Delimiter, raw, Delimiter)
	}
	tok.Names = strings.Split(fields[0], ",")
	return tok, nil
}

// Resolve returns the value of the first name with a non-empty value, falling
// back to the default, followed by the suffix.
func (t Token) Resolve(lookup LookupFunc) (string, error) {
	for _, name := range t.Names {
		if v := lookup(ComposeName(name, lookup)); v != "" {
			return v + t.Suffix, nil
		}
	}
	if t.HasDefault {
		return t.Default + t.Suffix, nil
	}

	names := strings.Join(t.Names, ",")
	return "", &UnresolvedError{
		CLIError: model.NewConfigError("%s%s was specified in the command but there is no env variable named %s", Delimiter, t.Raw, names).
			WithHint("provide a default value with '@@" + names + "@:<default value>@:', " +
				"an empty default can be specified with '@@" + names + "@:@:'"),
		Names: t.Names,
	}
}

// UnresolvedError is returned for a token none of whose names has a value
// and which carries no default.
type UnresolvedError struct {
	*model.CLIError
	Names []string
}

func (e *UnresolvedError) Unwrap() error { return e.CLIError }

// Suggest appends a "did you mean" line to the hint when one of known is
// close to a missing name.
func (e *UnresolvedError) Suggest(known []string) {
	for _, name := range e.Names {
		if match := ClosestName(name, known); match != "" && match != name {
			e.Hint += "\n  did you mean " + match + "?"
			return
		}
	}
}

// ClosestName returns the candidate that best matches target, or "" when
// none contains its characters in order.
func ClosestName(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// ComposeName builds a variable name from colon-separated segments, replacing
// every odd segment by the value of the variable it names. Substituted values
// are not expanded further.
func ComposeName(name string, lookup LookupFunc) string {
	if !strings.Contains(name, ":") {
		return name
	}
	segments := strings.Split(name, ":")
	var sb strings.Builder
	for i, seg := range segments {
		if i%2 == 0 {
			sb.WriteString(seg)
		} else {
			sb.WriteString(lookup(seg))
		}
	}
	return sb.String()
}

// Substitute rewrites every token in arg. Arguments without a delimiter are
// returned unchanged.
func Substitute(arg string, lookup LookupFunc) (string, error) {
	if !strings.Contains(arg, Delimiter) {
		return arg, nil
	}

	pieces := strings.Split(arg, Delimiter)
	specs := pieces[1:]
	// a trailing @@ closes the last token
	if last := len(specs) - 1; last > 0 && specs[last] == "" {
		specs = specs[:last]
	}

	var sb strings.Builder
	sb.WriteString(pieces[0])
	for _, raw := range specs {
		tok, err := ParseToken(raw)
		if err != nil {
			return "", err
		}
		value, err := tok.Resolve(lookup)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}

// SubstituteAll rewrites every argument, stopping at the first error.
func SubstituteAll(args []string, lookup LookupFunc) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		v, err := Substitute(arg, lookup)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Assignment is a NAME=VALUE pair given as an @= argument.
type Assignment struct {
	Name  string
	Value string
}

// ExtractAssignments removes @=NAME=VALUE arguments from args and returns
// them in order. The text after @= must contain exactly one "=" and a
// non-empty name.
func ExtractAssignments(args []string) ([]string, []Assignment, error) {
	rest := make([]string, 0, len(args))
	var assigns []Assignment
	for _, arg := range args {
		if !strings.HasPrefix(arg, AssignPrefix) {
			rest = append(rest, arg)
			continue
		}
		parts := strings.Split(strings.TrimPrefix(arg, AssignPrefix), "=")
		if len(parts) != 2 || parts[0] == "" {
			return nil, nil, model.NewConfigError("invalid assignment %q", arg).
				WithHint("use @=NAME=VALUE with a single '='")
		}
		assigns = append(assigns, Assignment{Name: parts[0], Value: parts[1]})
	}
	return rest, assigns, nil
}
