// Package reporter provides output formatting for resolution results
package reporter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/stackgen-cli/envmode/internal/resolver"
)

// Format names accepted by Format.
const (
	FormatNameText     = "text"
	FormatNameJSON     = "json"
	FormatNameMarkdown = "markdown"
	FormatNameYAML     = "yaml"
	FormatNameDotenv   = "dotenv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatNameText, FormatNameJSON, FormatNameMarkdown, FormatNameYAML, FormatNameDotenv}

// Format renders r in the named format.
func Format(name string, r *resolver.Resolution) (string, error) {
	switch name {
	case FormatNameText, "":
		return FormatText(r)
	case FormatNameJSON:
		return FormatJSON(r)
	case FormatNameMarkdown, "md":
		return FormatMarkdown(r)
	case FormatNameYAML, "yml":
		return FormatYAML(r)
	case FormatNameDotenv, "env":
		return FormatDotenv(r)
	default:
		return "", fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Formats, ", "))
	}
}

// FormatText generates colored text output
func FormatText(r *resolver.Resolution) (string, error) {
	var sb strings.Builder

	sb.WriteString(color.CyanString("Environment Resolution Report\n"))
	sb.WriteString(color.CyanString("=============================\n\n"))

	sb.WriteString(fmt.Sprintf("Mode: %s\n", r.Mode))
	sb.WriteString(fmt.Sprintf("Root: %s\n", r.Path))
	sb.WriteString(fmt.Sprintf("Env files: %d\n", len(r.EnvFiles)))
	for _, f := range r.EnvFiles {
		sb.WriteString(fmt.Sprintf("  %s\n", f))
	}
	sb.WriteString(fmt.Sprintf("Variables resolved: %d\n\n", len(r.Variables)))

	if len(r.Warnings) > 0 {
		sb.WriteString(color.YellowString("Warnings\n"))
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("  • %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Variables with overrides first
	overridden := []*resolver.Variable{}
	clean := []*resolver.Variable{}
	for _, v := range sortedByName(r) {
		if v.Overridden {
			overridden = append(overridden, v)
		} else {
			clean = append(clean, v)
		}
	}

	if len(overridden) > 0 {
		sb.WriteString(color.YellowString("Variables with Overrides\n"))
		sb.WriteString("------------------------\n")
		for _, v := range overridden {
			formatVariable(&sb, v, true)
		}
		sb.WriteString("\n")
	}

	if len(clean) > 0 {
		sb.WriteString(color.GreenString("Cleanly Resolved Variables\n"))
		sb.WriteString("--------------------------\n")
		for _, v := range clean {
			formatVariable(&sb, v, false)
		}
	}

	return sb.String(), nil
}

func formatVariable(sb *strings.Builder, v *resolver.Variable, showChain bool) {
	sb.WriteString(color.WhiteString(v.Name))
	sb.WriteString("\n")

	finalVal := v.FinalValue
	if finalVal == "" {
		finalVal = color.HiBlackString("(empty)")
	}
	sb.WriteString(fmt.Sprintf("  final: %s\n", finalVal))
	sb.WriteString(fmt.Sprintf("  from: %s\n", location(v.FinalFrom)))

	if showChain && len(v.Chain) > 1 {
		sb.WriteString(color.HiBlackString("  chain:\n"))
		for i := len(v.Chain) - 1; i >= 0; i-- {
			s := v.Chain[i]
			marker := "  "
			if i == len(v.Chain)-1 {
				marker = "→ "
			}

			val := s.Value
			if val == "" {
				val = "(empty)"
			}
			sb.WriteString(fmt.Sprintf("    %s%s = %s\n", marker, location(s), val))
		}
	}

	sb.WriteString("\n")
}

func location(s resolver.Source) string {
	if s.File != "" {
		return s.File
	}
	return s.Layer.String()
}

func sortedByName(r *resolver.Resolution) []*resolver.Variable {
	vars := make([]*resolver.Variable, len(r.Variables))
	copy(vars, r.Variables)
	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Name < vars[j].Name
	})
	return vars
}

type reportSource struct {
	Layer string `json:"layer" yaml:"layer"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
	Value string `json:"value" yaml:"value"`
	Raw   string `json:"raw,omitempty" yaml:"raw,omitempty"`
}

type reportVariable struct {
	Name       string         `json:"name" yaml:"name"`
	FinalValue string         `json:"final_value" yaml:"final_value"`
	FinalFrom  reportSource   `json:"final_from" yaml:"final_from"`
	Overridden bool           `json:"overridden" yaml:"overridden"`
	Conflicts  []string       `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
	Chain      []reportSource `json:"chain,omitempty" yaml:"chain,omitempty"`
}

type report struct {
	Mode      string           `json:"mode" yaml:"mode"`
	Path      string           `json:"path" yaml:"path"`
	EnvFiles  []string         `json:"env_files" yaml:"env_files"`
	Variables []reportVariable `json:"variables" yaml:"variables"`
	Undefined []string         `json:"undefined,omitempty" yaml:"undefined,omitempty"`
	Warnings  []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func toReportSource(s resolver.Source) reportSource {
	return reportSource{
		Layer: s.Layer.String(),
		File:  s.File,
		Value: s.Value,
		Raw:   s.Raw,
	}
}

func buildReport(r *resolver.Resolution) report {
	out := report{
		Mode:      r.Mode,
		Path:      r.Path,
		EnvFiles:  r.EnvFiles,
		Undefined: r.Undefined,
		Warnings:  r.Warnings,
	}
	if out.EnvFiles == nil {
		out.EnvFiles = []string{}
	}

	for _, v := range sortedByName(r) {
		rv := reportVariable{
			Name:       v.Name,
			FinalValue: v.FinalValue,
			FinalFrom:  toReportSource(v.FinalFrom),
			Overridden: v.Overridden,
		}
		if v.Overridden {
			rv.Conflicts = v.Conflicts
			for _, s := range v.Chain {
				rv.Chain = append(rv.Chain, toReportSource(s))
			}
		}
		out.Variables = append(out.Variables, rv)
	}
	return out
}

// FormatJSON generates JSON output
func FormatJSON(r *resolver.Resolution) (string, error) {
	data, err := json.MarshalIndent(buildReport(r), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatYAML generates YAML output with the same shape as FormatJSON
func FormatYAML(r *resolver.Resolution) (string, error) {
	data, err := yaml.Marshal(buildReport(r))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatDotenv renders the final values as a dotenv file
func FormatDotenv(r *resolver.Resolution) (string, error) {
	return godotenv.Marshal(r.Env())
}

// FormatMarkdown generates markdown output
func FormatMarkdown(r *resolver.Resolution) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Environment Resolution Report\n\n")
	sb.WriteString(fmt.Sprintf("**Mode:** `%s`\n\n", r.Mode))
	sb.WriteString(fmt.Sprintf("**Root:** `%s`\n\n", r.Path))

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Env files loaded | %d |\n", len(r.EnvFiles)))
	sb.WriteString(fmt.Sprintf("| Variables resolved | %d |\n", len(r.Variables)))

	overrides := 0
	for _, v := range r.Variables {
		if v.Overridden {
			overrides++
		}
	}
	sb.WriteString(fmt.Sprintf("| Variables with overrides | %d |\n", overrides))
	sb.WriteString("\n")

	if len(r.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Resolved Variables\n\n")
	sb.WriteString("| Variable | Final Value | Source | Overridden |\n")
	sb.WriteString("|----------|-------------|--------|------------|\n")

	// Sort: overridden first
	vars := sortedByName(r)
	sort.SliceStable(vars, func(i, j int) bool {
		return vars[i].Overridden && !vars[j].Overridden
	})

	for _, v := range vars {
		val := v.FinalValue
		if len(val) > 30 {
			val = val[:27] + "..."
		}
		val = "`" + val + "`"

		override := ""
		if v.Overridden {
			override = "Yes"
		}

		sb.WriteString(fmt.Sprintf("| `%s` | %s | %s | %s |\n", v.Name, val, v.FinalFrom.Layer.String(), override))
	}

	return sb.String(), nil
}
