package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v2"

	"github.com/vsecure-io/vsecure/internal/aggregator"
	"github.com/vsecure-io/vsecure/internal/findings"
)

const labelWidth = 60

// Output formats accepted by Render.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Entry is the rendered form of one finding.
type Entry struct {
	Tool        string `json:"tool" yaml:"tool"`
	Rule        string `json:"rule,omitempty" yaml:"rule,omitempty"`
	FilePath    string `json:"file" yaml:"file"`
	Line        int    `json:"line" yaml:"line"`
	Message     string `json:"message" yaml:"message"`
	Actionable  bool   `json:"actionable" yaml:"actionable"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	FixedCode   string `json:"fixed_code,omitempty" yaml:"fixed_code,omitempty"`
	Snippet     string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// FileReport groups the entries of one file.
type FileReport struct {
	FilePath string  `json:"file" yaml:"file"`
	Stale    bool    `json:"stale" yaml:"stale"`
	Findings []Entry `json:"findings" yaml:"findings"`
}

// Report is the machine-readable view of an aggregation result.
type Report struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Total      int          `json:"total" yaml:"total"`
	Files      []FileReport `json:"files" yaml:"files"`
	Candidates []Entry      `json:"whole_file_candidates" yaml:"whole_file_candidates"`
	Dropped    int          `json:"dropped" yaml:"dropped"`
}

func newEntry(f findings.Finding) Entry {
	return Entry{
		Tool:        f.ToolID,
		Rule:        f.RuleID,
		FilePath:    f.FilePath,
		Line:        f.Line,
		Message:     f.Message,
		Actionable:  f.IsActionable(),
		Explanation: f.Explanation(),
		FixedCode:   f.FixedCode(),
		Snippet:     f.SourceSnippet,
	}
}

// NewReport builds the rendered view of res. stale may be nil.
func NewReport(res *aggregator.Result, stale func(string) bool) Report {
	report := Report{
		RunID:      res.RunID,
		Total:      len(res.Findings),
		Files:      []FileReport{},
		Candidates: []Entry{},
		Dropped:    len(res.Dropped),
	}
	for _, g := range res.Groups() {
		fr := FileReport{FilePath: g.FilePath, Stale: stale != nil && stale(g.FilePath)}
		for _, f := range g.Findings {
			fr.Findings = append(fr.Findings, newEntry(f))
		}
		report.Files = append(report.Files, fr)
	}
	for _, f := range res.Candidates {
		report.Candidates = append(report.Candidates, newEntry(f))
	}
	return report
}

// Render writes report to w in format.
func Render(w io.Writer, format string, report Report, colored bool) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case FormatYAML:
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(out))
		return err
	case FormatHuman, "":
		renderHuman(w, report, colored)
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// Render writes report to the console output.
func (c *Console) Render(format string, report Report) error {
	return Render(c.w, format, report, c.color)
}

func palette(colored bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func renderHuman(w io.Writer, report Report, colored bool) {
	file := palette(colored, color.FgCyan, color.Bold)
	heading := palette(colored, color.FgWhite, color.Bold)
	fix := palette(colored, color.FgGreen)
	warn := palette(colored, color.FgYellow)
	dim := palette(colored, color.FgHiBlack)

	if report.Total == 0 {
		fmt.Fprintln(w, "No findings.")
	} else {
		heading.Fprintf(w, "FINDINGS (%d in %d files)\n", report.Total, len(report.Files))
	}

	for _, fr := range report.Files {
		file.Fprintf(w, "%s", fr.FilePath)
		if fr.Stale {
			warn.Fprint(w, "  (stale: re-run analysis)")
		}
		fmt.Fprintln(w)
		for _, e := range fr.Findings {
			fmt.Fprintf(w, "  Line %d: %s", e.Line, TruncateMessage(e.Message, labelWidth))
			dim.Fprintf(w, " [%s]", e.Tool)
			if e.Actionable {
				fix.Fprint(w, " fix available")
			}
			fmt.Fprintln(w)
		}
	}

	if len(report.Candidates) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "WHOLE-FILE RECOMMENDATIONS")
		for _, e := range report.Candidates {
			fmt.Fprintf(w, "  %s: %s\n", e.FilePath, TruncateMessage(e.Message, labelWidth))
		}
	}

	if report.Dropped > 0 {
		fmt.Fprintln(w)
		warn.Fprintf(w, "%d malformed records were dropped\n", report.Dropped)
	}
}

// TruncateMessage shortens msg to width runes followed by "...".
func TruncateMessage(msg string, width int) string {
	msg = strings.TrimSpace(msg)
	runes := []rune(msg)
	if len(runes) <= width {
		return msg
	}
	return string(runes[:width]) + "..."
}
