package sarif

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/workspace"
)

const semgrepReport = `{
  "version": "2.1.0",
  "runs": [{
    "tool": {"driver": {"name": "Semgrep OSS"}},
    "results": [
      {
        "ruleId": "js.eval",
        "message": {"text": "Avoid eval"},
        "locations": [{"physicalLocation": {
          "artifactLocation": {"uri": "file://%ROOT%/app.js"},
          "region": {"startLine": 2, "startColumn": 1, "endColumn": 12}
        }}],
        "fixes": [{
          "description": {"text": "Parse instead of eval"},
          "artifactChanges": [{
            "artifactLocation": {"uri": "app.js"},
            "replacements": [{
              "deletedRegion": {"startLine": 2, "startColumn": 1, "endColumn": 12},
              "insertedContent": {"text": "JSON.parse(x)"}
            }]
          }]
        }]
      },
      {
        "ruleId": "js.suppressed",
        "message": {"text": "ignored"},
        "suppressions": [{"kind": "inSource"}],
        "locations": [{"physicalLocation": {
          "artifactLocation": {"uri": "app.js"},
          "region": {"startLine": 1}
        }}]
      },
      {
        "ruleId": "js.nolocation",
        "message": {"text": "somewhere"}
      }
    ]
  }]
}`

func setup(t *testing.T, report string) (*workspace.Workspace, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("const x = input;\neval(x);    // run\n"), 0o644))

	ws, err := workspace.New(root)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.sarif")
	content := []byte(strings.ReplaceAll(report, "%ROOT%", filepath.ToSlash(ws.Root())))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return ws, path
}

func TestReadRecords(t *testing.T) {
	ws, path := setup(t, semgrepReport)

	results, err := ReadRecords(path, "", ws, nil)
	require.NoError(t, err)
	require.Contains(t, results, findings.ToolSemgrep)

	records := results[findings.ToolSemgrep]
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "app.js", first.FilePath)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "js.eval", first.RuleID)
	assert.Equal(t, "Avoid eval", first.Message)
	assert.Equal(t, findings.ToolSemgrep, first.Tool)
	require.NotNil(t, first.Recommendation)
	assert.Equal(t, "JSON.parse(x) // run", first.Recommendation.FixedCode)
	assert.Equal(t, "Parse instead of eval", first.Recommendation.Explanation)

	second := records[1]
	assert.Empty(t, second.FilePath)
	assert.Nil(t, second.Recommendation)
}

func TestReadRecordsToolOverride(t *testing.T) {
	ws, path := setup(t, semgrepReport)

	results, err := ReadRecords(path, "CodeQL", ws, nil)
	require.NoError(t, err)
	assert.Len(t, results["codeql"], 2)
}

func TestReadRecordsInvalidDocument(t *testing.T) {
	ws, path := setup(t, "{not json")

	_, err := ReadRecords(path, "", ws, nil)
	require.Error(t, err)
}

func TestNormalizeToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "Semgrep OSS", want: findings.ToolSemgrep},
		{name: "CodeQL", want: findings.ToolCodeQL},
		{name: " Bandit ", want: "bandit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToolName(tt.name))
		})
	}
}

func TestFixWithoutColumnsReplacesLine(t *testing.T) {
	report := `{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"codeql"}},"results":[{
	  "ruleId":"r","message":{"text":"m"},
	  "locations":[{"physicalLocation":{"artifactLocation":{"uri":"app.js"},"region":{"startLine":1}}}],
	  "fixes":[{"artifactChanges":[{"artifactLocation":{"uri":"app.js"},"replacements":[
	    {"deletedRegion":{"startLine":1},"insertedContent":{"text":"const x = sanitize(input);\n"}}]}]}]
	}]}]}`
	ws, path := setup(t, report)

	results, err := ReadRecords(path, "", ws, nil)
	require.NoError(t, err)
	rec := results[findings.ToolCodeQL][0]
	require.NotNil(t, rec.Recommendation)
	assert.Equal(t, "const x = sanitize(input);", rec.Recommendation.FixedCode)
	assert.Equal(t, "m", rec.Recommendation.Explanation)
}

func TestMultiLineFixIsSkipped(t *testing.T) {
	report := `{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"codeql"}},"results":[{
	  "ruleId":"r","message":{"text":"m"},
	  "locations":[{"physicalLocation":{"artifactLocation":{"uri":"app.js"},"region":{"startLine":1}}}],
	  "fixes":[{"artifactChanges":[{"artifactLocation":{"uri":"app.js"},"replacements":[
	    {"deletedRegion":{"startLine":1,"endLine":2},"insertedContent":{"text":"x"}}]}]}]
	}]}]}`
	ws, path := setup(t, report)

	results, err := ReadRecords(path, "", ws, nil)
	require.NoError(t, err)
	assert.Nil(t, results[findings.ToolCodeQL][0].Recommendation)
}
