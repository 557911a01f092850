package analyse

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsecure-io/vsecure/internal/analyzer"
	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
)

func TestValidateAnalyseArgs(t *testing.T) {
	tmpDir := t.TempDir()
	report := filepath.Join(tmpDir, "semgrep.sarif")
	assert.NoError(t, os.WriteFile(report, []byte("{}"), 0o644))
	file := filepath.Join(tmpDir, "file.js")
	assert.NoError(t, os.WriteFile(file, []byte("x\n"), 0o644))

	tests := []struct {
		name       string
		options    RunOptionsAnalyse
		args       []string
		wantInputs []sarifInput
		wantErr    string
	}{
		{
			// valid: vsecure analyse --semgrep /path/to/target
			name:    "Valid target path",
			options: RunOptionsAnalyse{Semgrep: true, Format: "human"},
			args:    []string{tmpDir},
		},
		{
			// valid: vsecure analyse --sarif semgrep=report.sarif /path/to/target
			name:       "Valid SARIF report with tool",
			options:    RunOptionsAnalyse{SarifReports: []string{"semgrep=" + report}, Format: "json"},
			args:       []string{tmpDir},
			wantInputs: []sarifInput{{Tool: "semgrep", Path: report}},
		},
		{
			// valid: vsecure analyse --sarif report.sarif /path/to/target
			name:       "Valid SARIF report without tool",
			options:    RunOptionsAnalyse{SarifReports: []string{report}, Format: "yaml"},
			args:       []string{tmpDir},
			wantInputs: []sarifInput{{Path: report}},
		},
		{
			// fail: vsecure analyse
			name:    "Missing target path",
			options: RunOptionsAnalyse{Format: "human"},
			args:    []string{},
			wantErr: "exactly one target path must be specified",
		},
		{
			// fail: vsecure analyse /invalid/path/to/target
			name:    "Invalid target path",
			options: RunOptionsAnalyse{Format: "human"},
			args:    []string{"/invalid/path/to/target"},
			wantErr: "the target path does not exist: /invalid/path/to/target",
		},
		{
			// fail: vsecure analyse file.js
			name:    "Target is a file",
			options: RunOptionsAnalyse{Format: "human"},
			args:    []string{file},
			wantErr: "the target path must be a directory: " + file,
		},
		{
			// fail: vsecure analyse --format xml /path/to/target
			name:    "Unsupported format",
			options: RunOptionsAnalyse{Format: "xml"},
			args:    []string{tmpDir},
			wantErr: `unsupported output format "xml", use one of: human, json, yaml`,
		},
		{
			// fail: vsecure analyse --semgrep --sarif report.sarif /path/to/target
			name:    "SARIF combined with analyzer flags",
			options: RunOptionsAnalyse{Semgrep: true, SarifReports: []string{report}, Format: "human"},
			args:    []string{tmpDir},
			wantErr: "the 'sarif' flag cannot be combined with 'semgrep' or 'codeql'",
		},
		{
			// fail: vsecure analyse --sarif =report.sarif /path/to/target
			name:    "SARIF with empty tool",
			options: RunOptionsAnalyse{SarifReports: []string{"=" + report}, Format: "human"},
			args:    []string{tmpDir},
			wantErr: `invalid 'sarif' value "=` + report + `": tool name is empty`,
		},
		{
			// fail: vsecure analyse --sarif missing.sarif /path/to/target
			name:    "Missing SARIF report",
			options: RunOptionsAnalyse{SarifReports: []string{"/invalid/report.sarif"}, Format: "human"},
			args:    []string{tmpDir},
			wantErr: "the SARIF report does not exist: /invalid/report.sarif",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs, err := validateAnalyseArgs(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantInputs, inputs)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestFlagsFromOptions(t *testing.T) {
	enabled := true

	tests := []struct {
		name    string
		options RunOptionsAnalyse
		cfg     *config.Config
		want    analyzer.Flags
	}{
		{
			name:    "Command line wins",
			options: RunOptionsAnalyse{CodeQL: true},
			cfg:     &config.Config{Analyzer: config.Analyzer{Semgrep: &enabled}},
			want:    analyzer.Flags{CodeQL: true},
		},
		{
			name: "Config defaults",
			cfg:  &config.Config{Analyzer: config.Analyzer{CodeQL: &enabled}},
			want: analyzer.Flags{CodeQL: true},
		},
		{
			name: "Semgrep when nothing is selected",
			cfg:  nil,
			want: analyzer.Flags{Semgrep: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flagsFromOptions(&tt.options, tt.cfg))
		})
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	analyseOptions = RunOptionsAnalyse{}
	var out bytes.Buffer
	AnalyseCmd.SetOut(&out)
	AnalyseCmd.SetArgs(args)
	defer AnalyseCmd.SetOut(nil)
	err := AnalyseCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunAnalyseCommandRemote(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("eval(x);\n"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "ok",
			"results": map[string]interface{}{
				"semgrep": []map[string]interface{}{
					{"filePath": "app.js", "line": 1, "message": "Avoid eval",
						"recommendation": map[string]string{"fixedCode": "JSON.parse(x);"}},
					{"line": 4, "message": "no file"},
				},
			},
		})
	}))
	defer server.Close()

	Init(&config.Config{Analyzer: config.Analyzer{ServerURL: server.URL}})
	defer Init(nil)

	out, err := execute(t, "--semgrep", "--format", "json", root)
	require.NoError(t, err)

	var report struct {
		Total   int `json:"total"`
		Dropped int `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Dropped)

	saved, err := findings.LoadResults(filepath.Join(root, ".vsecure", "results.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.RunID)
	assert.Len(t, saved.Results[findings.ToolSemgrep], 2)
}

func TestRunAnalyseCommandUnavailable(t *testing.T) {
	root := t.TempDir()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	Init(&config.Config{Analyzer: config.Analyzer{ServerURL: server.URL}})
	defer Init(nil)

	_, err := execute(t, "--semgrep", "--format", "human", root)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, ".vsecure", "results.json"))
}

func TestRunAnalyseCommandSarif(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("eval(x);\n"), 0o644))
	report := filepath.Join(t.TempDir(), "codeql.sarif")
	require.NoError(t, os.WriteFile(report, []byte(`{"version":"2.1.0","runs":[{"tool":{"driver":{"name":"CodeQL"}},"results":[
	  {"ruleId":"js/eval","message":{"text":"Avoid eval"},
	   "locations":[{"physicalLocation":{"artifactLocation":{"uri":"app.js"},"region":{"startLine":1}}}]}]}]}`), 0o644))

	output := filepath.Join(t.TempDir(), "results.json")
	out, err := execute(t, "--sarif", report, "--output", output, "--format", "human", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Line 1: Avoid eval [codeql]")

	saved, err := findings.LoadResults(output)
	require.NoError(t, err)
	assert.Len(t, saved.Results[findings.ToolCodeQL], 1)
}
