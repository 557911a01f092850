// Package sarif turns SARIF reports written by local scanners into the raw
// records an analysis pass consumes.
package sarif

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/internal/workspace"
)

// Report wraps a parsed SARIF document together with the workspace its URIs
// are resolved against.
type Report struct {
	*sarif.Report
	logger    hclog.Logger
	workspace *workspace.Workspace
}

func readSarifReport(inputPath string) (*sarif.Report, error) {
	jsonFile, err := os.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()

	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, err
	}

	var report sarif.Report
	if err := json.Unmarshal(byteValue, &report); err != nil {
		return nil, fmt.Errorf("invalid SARIF document %q: %w", inputPath, err)
	}
	return &report, nil
}

// removeSuppressedResults drops every result carrying suppressions.
func removeSuppressedResults(report *sarif.Report) {
	for _, run := range report.Runs {
		var kept []*sarif.Result
		for _, result := range run.Results {
			if len(result.Suppressions) == 0 {
				kept = append(kept, result)
			}
		}
		run.Results = kept
	}
}

// ReadReport parses the SARIF file at inputPath. Suppressed results are
// removed.
func ReadReport(inputPath string, ws *workspace.Workspace, logger hclog.Logger) (*Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	report, err := readSarifReport(inputPath)
	if err != nil {
		return nil, err
	}
	removeSuppressedResults(report)

	return &Report{Report: report, logger: logger, workspace: ws}, nil
}

// ToolName returns the normalized name of the first run's driver.
func (r *Report) ToolName() string {
	for _, run := range r.Runs {
		if run == nil || run.Tool.Driver == nil {
			continue
		}
		return NormalizeToolName(run.Tool.Driver.Name)
	}
	return ""
}

// NormalizeToolName maps a SARIF driver name onto a tool channel.
func NormalizeToolName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.Contains(lower, findings.ToolSemgrep):
		return findings.ToolSemgrep
	case strings.Contains(lower, findings.ToolCodeQL):
		return findings.ToolCodeQL
	default:
		return lower
	}
}

// Records converts every result into a raw record. Results without a physical
// location still produce a record with an empty path so the aggregation pass
// can report them as dropped.
func (r *Report) Records(tool string) []findings.RawRecord {
	var records []findings.RawRecord
	for _, run := range r.Runs {
		if run == nil {
			continue
		}
		for _, result := range run.Results {
			if result == nil {
				continue
			}
			records = append(records, r.record(tool, result))
		}
	}
	return records
}

func (r *Report) record(tool string, result *sarif.Result) findings.RawRecord {
	rec := findings.RawRecord{Tool: tool}
	if result.RuleID != nil {
		rec.RuleID = *result.RuleID
	}
	if result.Message.Text != nil {
		rec.Message = *result.Message.Text
	}

	uri, region := primaryLocation(result)
	rec.FilePath = r.relativePath(uri)
	if region != nil {
		if region.StartLine != nil {
			rec.Line = *region.StartLine
		}
		if region.StartColumn != nil {
			rec.Column = &findings.Column{Start: *region.StartColumn}
			if region.EndColumn != nil {
				rec.Column.End = *region.EndColumn
			}
		}
	}

	if fixed, ok := r.fixedLine(rec.FilePath, rec.Line, result); ok {
		explanation := rec.Message
		if len(result.Fixes) > 0 && result.Fixes[0].Description != nil && result.Fixes[0].Description.Text != nil {
			explanation = *result.Fixes[0].Description.Text
		}
		rec.Recommendation = &findings.Remediation{Explanation: explanation, FixedCode: fixed}
	}
	return rec
}

func primaryLocation(result *sarif.Result) (string, *sarif.Region) {
	for _, loc := range result.Locations {
		if loc == nil || loc.PhysicalLocation == nil {
			continue
		}
		phys := loc.PhysicalLocation
		if phys.ArtifactLocation == nil || phys.ArtifactLocation.URI == nil {
			continue
		}
		return *phys.ArtifactLocation.URI, phys.Region
	}
	return "", nil
}

// relativePath strips a file:// scheme and expresses uri relative to the
// workspace root when it points inside it.
func (r *Report) relativePath(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	if uri == "" || r.workspace == nil {
		return uri
	}
	return r.workspace.Relative(uri)
}

// ReadRecords loads a SARIF file into the channel it belongs to. When tool is
// empty the channel is derived from the report's driver name.
func ReadRecords(inputPath, tool string, ws *workspace.Workspace, logger hclog.Logger) (findings.ToolResults, error) {
	report, err := ReadReport(inputPath, ws, logger)
	if err != nil {
		return nil, err
	}

	channel := strings.ToLower(strings.TrimSpace(tool))
	if channel == "" {
		channel = report.ToolName()
	}
	if channel == "" {
		return nil, fmt.Errorf("can't determine the tool of SARIF report %q", inputPath)
	}

	records := report.Records(channel)
	report.logger.Debug("SARIF report loaded", "path", inputPath, "tool", channel, "records", len(records))
	return findings.ToolResults{channel: records}, nil
}
