package fix

import (
	"fmt"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/pkg/shared"
	"github.com/vsecure-io/vsecure/pkg/shared/files"
)

// validateFixArgs validates the arguments provided to the fix command and
// returns the results file and the requested origin.
func validateFixArgs(options *RunOptionsFix, args []string) (string, findings.Origin, error) {
	path, err := shared.ResolveResultsPath(options.ResultsPath, args)
	if err != nil {
		return "", findings.LineLevel, err
	}

	origin, err := findings.ParseOrigin(options.Origin)
	if err != nil {
		return "", findings.LineLevel, fmt.Errorf("the 'origin' flag must be 'line' or 'file': %w", err)
	}

	if options.Line < 0 {
		return "", origin, fmt.Errorf("the 'line' flag must be a positive integer")
	}
	if options.Line > 0 && options.File == "" {
		return "", origin, fmt.Errorf("the 'line' flag requires the 'file' flag")
	}
	if options.Suggest && origin == findings.WholeFile {
		return "", origin, fmt.Errorf("suggested fixes are line fixes, 'suggest' cannot be used with origin 'file'")
	}

	if err := files.ValidatePath(path); err != nil {
		return "", origin, fmt.Errorf("results file %q is not readable, run the analyse command first: %w", path, err)
	}
	return path, origin, nil
}
