package findings

import "sort"

// Tool channel identifiers reported by the analysis service.
const (
	ToolSemgrep = "semgrep"
	ToolCodeQL  = "codeql"
)

// ToolOrder is the declared processing order of known tool channels.
var ToolOrder = []string{ToolSemgrep, ToolCodeQL}

// Column is the optional column span some analyzers report.
type Column struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RawRecord is a finding as delivered by the analysis service.
type RawRecord struct {
	FilePath       string       `json:"filePath"`
	Line           int          `json:"line"`
	Message        string       `json:"message"`
	Tool           string       `json:"tool,omitempty"`
	RuleID         string       `json:"ruleId,omitempty"`
	Column         *Column      `json:"column,omitempty"`
	Recommendation *Remediation `json:"recommendation,omitempty"`
}

// ToolResults maps a tool channel to its records in reported order.
type ToolResults map[string][]RawRecord

// Channels returns the channel names in processing order: known tools in
// ToolOrder first, then any other channel sorted by name.
func (r ToolResults) Channels() []string {
	known := make(map[string]bool, len(ToolOrder))
	channels := make([]string, 0, len(r))
	for _, tool := range ToolOrder {
		known[tool] = true
		if _, ok := r[tool]; ok {
			channels = append(channels, tool)
		}
	}

	var extra []string
	for tool := range r {
		if !known[tool] {
			extra = append(extra, tool)
		}
	}
	sort.Strings(extra)

	return append(channels, extra...)
}

// Len returns the number of records across all channels.
func (r ToolResults) Len() int {
	n := 0
	for _, records := range r {
		n += len(records)
	}
	return n
}
