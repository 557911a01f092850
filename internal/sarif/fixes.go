package sarif

import (
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

// fixedLine rebuilds the full replacement text for line from the first SARIF
// fix whose replacements touch only that line. Columns are 1-based and the
// end column is exclusive.
func (r *Report) fixedLine(filePath string, line int, result *sarif.Result) (string, bool) {
	if filePath == "" || line < 1 {
		return "", false
	}

	for _, fix := range result.Fixes {
		if fix == nil {
			continue
		}
		for _, change := range fix.ArtifactChanges {
			if change == nil || len(change.Replacements) != 1 {
				continue
			}
			rep := change.Replacements[0]
			if rep == nil {
				continue
			}
			if text, ok := r.applyReplacement(filePath, line, rep); ok {
				return text, true
			}
		}
	}
	return "", false
}

func (r *Report) applyReplacement(filePath string, line int, rep *sarif.Replacement) (string, bool) {
	region := rep.DeletedRegion
	if region.StartLine == nil || *region.StartLine != line {
		return "", false
	}
	if region.EndLine != nil && *region.EndLine != line {
		r.logger.Debug("skipping multi-line fix", "file", filePath, "line", line)
		return "", false
	}

	inserted := ""
	if rep.InsertedContent != nil && rep.InsertedContent.Text != nil {
		inserted = strings.TrimRight(*rep.InsertedContent.Text, "\r\n")
	}

	if region.StartColumn == nil {
		return inserted, strings.TrimSpace(inserted) != ""
	}

	if r.workspace == nil {
		return "", false
	}
	source, err := r.workspace.ReadLine(filePath, line)
	if err != nil {
		r.logger.Debug("can't read source line for fix", "file", filePath, "line", line, "err", err)
		return "", false
	}

	runes := []rune(source)
	start := *region.StartColumn - 1
	end := len(runes)
	if region.EndColumn != nil {
		end = *region.EndColumn - 1
	}
	if start < 0 || start > len(runes) || end < start || end > len(runes) {
		r.logger.Debug("fix region outside the source line", "file", filePath, "line", line)
		return "", false
	}

	fixed := string(runes[:start]) + inserted + string(runes[end:])
	return fixed, strings.TrimSpace(fixed) != ""
}
