package findings

import (
	"fmt"
	"strings"
)

// Origin tells how a fix was produced and therefore what it replaces.
type Origin int

const (
	// LineLevel fixes replace exactly the line the finding points at.
	LineLevel Origin = iota
	// WholeFile fixes replace the entire document.
	WholeFile
)

// String returns the human-readable string representation of an Origin.
func (o Origin) String() string {
	switch o {
	case LineLevel:
		return "line"
	case WholeFile:
		return "file"
	default:
		return "unknown"
	}
}

// ParseOrigin converts a string identifier into an Origin value.
func ParseOrigin(raw string) (Origin, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "line", "line-level":
		return LineLevel, nil
	case "file", "whole-file":
		return WholeFile, nil
	default:
		return LineLevel, fmt.Errorf("unsupported fix origin %q", raw)
	}
}

// Remediation is a suggested code replacement with an optional explanation.
type Remediation struct {
	Explanation string `json:"explanation,omitempty"`
	FixedCode   string `json:"fixedCode,omitempty"`
}

// Finding is one analyzer or LLM report positioned at a file and line.
// FilePath is relative to the analysis root and Line is 1-based against the
// content the analysis ran on.
type Finding struct {
	ToolID        string       `json:"tool"`
	RuleID        string       `json:"ruleId,omitempty"`
	FilePath      string       `json:"filePath"`
	Line          int          `json:"line"`
	Message       string       `json:"message"`
	Remediation   *Remediation `json:"recommendation,omitempty"`
	SourceSnippet string       `json:"sourceSnippet"`
}

// FixedCode returns the trimmed replacement text, or "" when there is none.
func (f Finding) FixedCode() string {
	if f.Remediation == nil {
		return ""
	}
	return strings.TrimSpace(f.Remediation.FixedCode)
}

// Explanation returns the remediation explanation, if any.
func (f Finding) Explanation() string {
	if f.Remediation == nil {
		return ""
	}
	return f.Remediation.Explanation
}

// IsActionable reports whether the finding carries non-blank fixed code.
func (f Finding) IsActionable() bool {
	return f.FixedCode() != ""
}

// IsWholeFileCandidate uses the same test as IsActionable. Whether a fix is
// applied line-level or whole-file is chosen by the caller, not the finding.
func (f Finding) IsWholeFileCandidate() bool {
	return f.IsActionable()
}

// Location formats the finding position as path:line.
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.FilePath, f.Line)
}
