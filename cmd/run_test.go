package cmd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/stackgen-cli/envmode/internal/command"
	"github.com/stackgen-cli/envmode/internal/environ"
)

func TestBuildSpecs(t *testing.T) {
	env := environ.FromPairs([]string{"TOOL=echo", "HOST=db"})

	tests := []struct {
		name    string
		cmd     string
		args    []string
		noParse bool
		want    []command.Spec
	}{
		{
			name: "chained name substituted",
			cmd:  "sh",
			args: []string{"a", "~~", "@@TOOL@@", "b"},
			want: []command.Spec{
				{Name: "sh", Args: []string{"a"}},
				{Name: "echo", Args: []string{"b"}},
			},
		},
		{
			name: "first name verbatim",
			cmd:  "@@TOOL@@",
			args: []string{"@@HOST@:5432"},
			want: []command.Spec{{Name: "@@TOOL@@", Args: []string{"db5432"}}},
		},
		{
			name: "assignment visible to chained name",
			cmd:  "sh",
			args: []string{"@=RUN=make", "~~", "@@RUN@@", "@@HOST@@"},
			want: []command.Spec{
				{Name: "sh"},
				{Name: "make", Args: []string{"db"}},
			},
		},
		{
			name:    "no parse",
			cmd:     "sh",
			args:    []string{"~~", "@@TOOL@@"},
			noParse: true,
			want:    []command.Spec{{Name: "sh", Args: []string{"~~", "@@TOOL@@"}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := buildSpecs(tc.cmd, tc.args, env, tc.noParse)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("buildSpecs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
