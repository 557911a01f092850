package findings

import (
	"fmt"

	"github.com/vsecure-io/vsecure/pkg/shared"
	"github.com/vsecure-io/vsecure/pkg/shared/files"
)

// validateFindingsArgs validates the arguments provided to the findings
// command and returns the results file to read.
func validateFindingsArgs(options *RunOptionsFindings, args []string) (string, error) {
	path, err := shared.ResolveResultsPath(options.ResultsPath, args)
	if err != nil {
		return "", err
	}
	if err := shared.ValidateFormat(options.Format); err != nil {
		return "", err
	}
	if err := files.ValidatePath(path); err != nil {
		return "", fmt.Errorf("results file %q is not readable, run the analyse command first: %w", path, err)
	}
	return path, nil
}
