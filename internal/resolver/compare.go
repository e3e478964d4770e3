package resolver

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is a variable present in only one of two compared modes.
type Entry struct {
	Name string
	From Source
}

// Difference is a variable both modes set to different values, with the
// source that supplied each final value.
type Difference struct {
	Name   string
	First  Source
	Second Source
}

// ModeDriven reports whether a mode-specific file supplied either side.
func (d Difference) ModeDriven() bool {
	return d.First.Layer.ModeFile() || d.Second.Layer.ModeFile()
}

// CompareResult is the difference between the cascades of two modes.
type CompareResult struct {
	First, Second string

	OnlyInFirst  []Entry
	OnlyInSecond []Entry
	Different    []Difference
	Same         []string

	// FirstModeFiles and SecondModeFiles are the .env.<mode>* files each mode loaded.
	FirstModeFiles  []string
	SecondModeFiles []string
}

// Compare diffs two resolutions by final value. The mode variables are left
// out: they always hold the mode name.
func Compare(first, second *Resolution) *CompareResult {
	result := &CompareResult{
		First:           first.Mode,
		Second:          second.Mode,
		FirstModeFiles:  first.modeFiles(),
		SecondModeFiles: second.modeFiles(),
	}

	for _, v := range first.Variables {
		if v.FinalFrom.Layer == LayerMode {
			continue
		}
		other, ok := second.ByName[v.Name]
		switch {
		case !ok:
			result.OnlyInFirst = append(result.OnlyInFirst, Entry{Name: v.Name, From: v.FinalFrom})
		case other.FinalValue != v.FinalValue:
			result.Different = append(result.Different, Difference{Name: v.Name, First: v.FinalFrom, Second: other.FinalFrom})
		default:
			result.Same = append(result.Same, v.Name)
		}
	}
	for _, v := range second.Variables {
		if v.FinalFrom.Layer == LayerMode {
			continue
		}
		if _, ok := first.ByName[v.Name]; !ok {
			result.OnlyInSecond = append(result.OnlyInSecond, Entry{Name: v.Name, From: v.FinalFrom})
		}
	}

	sortEntries(result.OnlyInFirst)
	sortEntries(result.OnlyInSecond)
	sort.Strings(result.Same)
	sort.Slice(result.Different, func(i, j int) bool {
		return result.Different[i].Name < result.Different[j].Name
	})
	return result
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

func (r *Resolution) modeFiles() []string {
	var files []string
	seen := make(map[string]bool)
	for _, v := range r.Variables {
		for _, src := range v.Chain {
			if src.Layer.ModeFile() && !seen[src.File] {
				seen[src.File] = true
				files = append(files, src.File)
			}
		}
	}
	sort.Strings(files)
	return files
}

// FormatCompare renders a comparison, naming the layer and file behind every
// differing value. Values from mode-specific files are marked with [mode].
func FormatCompare(result *CompareResult) string {
	var sb strings.Builder
	first, second := result.First, result.Second

	fmt.Fprintf(&sb, "# Mode Comparison: %s vs %s\n\n", first, second)

	writeFiles := func(mode string, files []string) {
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## Mode files for %s (%d)\n", mode, len(files))
		for _, f := range files {
			fmt.Fprintf(&sb, "  - %s\n", f)
		}
		sb.WriteString("\n")
	}
	writeFiles(first, result.FirstModeFiles)
	writeFiles(second, result.SecondModeFiles)

	writeEntries := func(mode string, entries []Entry) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&sb, "## Only in %s (%d)\n", mode, len(entries))
		for _, e := range entries {
			fmt.Fprintf(&sb, "  - %s = %s  (%s)\n", e.Name, e.From.Value, describe(e.From))
		}
		sb.WriteString("\n")
	}
	writeEntries(first, result.OnlyInFirst)
	writeEntries(second, result.OnlyInSecond)

	modeDriven := 0
	if len(result.Different) > 0 {
		fmt.Fprintf(&sb, "## Different Values (%d)\n", len(result.Different))
		for _, d := range result.Different {
			if d.ModeDriven() {
				modeDriven++
			}
			fmt.Fprintf(&sb, "  - %s:\n", d.Name)
			fmt.Fprintf(&sb, "      %s: %s  (%s)\n", first, d.First.Value, describe(d.First))
			fmt.Fprintf(&sb, "      %s: %s  (%s)\n", second, d.Second.Value, describe(d.Second))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Summary\n")
	fmt.Fprintf(&sb, "  - %d variable(s) only in %s\n", len(result.OnlyInFirst), first)
	fmt.Fprintf(&sb, "  - %d variable(s) only in %s\n", len(result.OnlyInSecond), second)
	fmt.Fprintf(&sb, "  - %d variable(s) with different values, %d from mode files\n", len(result.Different), modeDriven)
	fmt.Fprintf(&sb, "  - %d variable(s) with same values\n", len(result.Same))

	return sb.String()
}

func describe(s Source) string {
	text := s.Layer.String()
	if s.File != "" && s.Layer != LayerOSEnv {
		text += " " + s.File
	}
	if s.Layer.ModeFile() {
		text += " [mode]"
	}
	return text
}
