package findings

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsActionable(t *testing.T) {
	tests := []struct {
		name        string
		remediation *Remediation
		want        bool
	}{
		{name: "no remediation", remediation: nil, want: false},
		{name: "explanation only", remediation: &Remediation{Explanation: "use a safe API"}, want: false},
		{name: "blank fixed code", remediation: &Remediation{FixedCode: " \n\t "}, want: false},
		{name: "fixed code", remediation: &Remediation{FixedCode: "safe();"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Finding{FilePath: "a.js", Line: 1, Remediation: tt.remediation}
			assert.Equal(t, tt.want, f.IsActionable())
			assert.Equal(t, tt.want, f.IsWholeFileCandidate())
		})
	}
}

func TestFixedCodeTrimmed(t *testing.T) {
	f := Finding{Remediation: &Remediation{FixedCode: "\n  safe();  \n"}}
	assert.Equal(t, "safe();", f.FixedCode())
}

func TestParseOrigin(t *testing.T) {
	o, err := ParseOrigin("Line")
	require.NoError(t, err)
	assert.Equal(t, LineLevel, o)

	o, err = ParseOrigin("whole-file")
	require.NoError(t, err)
	assert.Equal(t, WholeFile, o)
	assert.Equal(t, "file", o.String())

	_, err = ParseOrigin("hunk")
	assert.Error(t, err)
}

func TestChannelsOrder(t *testing.T) {
	results := ToolResults{
		"zap":     nil,
		"codeql":  {{FilePath: "a.js"}},
		"bandit":  nil,
		"semgrep": {{FilePath: "b.js"}, {FilePath: "c.js"}},
	}

	assert.Equal(t, []string{"semgrep", "codeql", "bandit", "zap"}, results.Channels())
	assert.Equal(t, 3, results.Len())
}

func TestGroupByFile(t *testing.T) {
	list := []Finding{
		{FilePath: "b.js", Line: 4},
		{FilePath: "a.js", Line: 1},
		{FilePath: "b.js", Line: 2},
		{FilePath: "a.js", Line: 9},
	}

	groups := GroupByFile(list)
	require.Len(t, groups, 2)
	assert.Equal(t, "b.js", groups[0].FilePath)
	assert.Equal(t, []int{4, 2}, lines(groups[0].Findings))
	assert.Equal(t, "a.js", groups[1].FilePath)
	assert.Equal(t, []int{1, 9}, lines(groups[1].Findings))
}

func TestSaveLoadResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	saved := SavedResults{
		RunID:     "run-1",
		Root:      "/work",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Results: ToolResults{
			ToolSemgrep: {{FilePath: "a.js", Line: 3, Message: "eval", Tool: "semgrep"}},
		},
	}

	require.NoError(t, SaveResults(path, saved))

	loaded, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, saved, *loaded)

	_, err = LoadResults(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func lines(list []Finding) []int {
	out := make([]int, 0, len(list))
	for _, f := range list {
		out = append(out, f.Line)
	}
	return out
}
