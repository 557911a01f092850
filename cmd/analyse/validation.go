package analyse

import (
	"fmt"
	"os"
	"strings"

	"github.com/vsecure-io/vsecure/pkg/shared"
)

// validateAnalyseArgs validates the arguments provided to the analyse command
// and returns the parsed --sarif inputs.
func validateAnalyseArgs(options *RunOptionsAnalyse, args []string) ([]sarifInput, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("exactly one target path must be specified")
	}

	targetPath := args[0]
	info, err := os.Stat(targetPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("the target path does not exist: %v", targetPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access the target path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("the target path must be a directory: %v", targetPath)
	}

	if err := shared.ValidateFormat(options.Format); err != nil {
		return nil, err
	}

	if len(options.SarifReports) == 0 {
		return nil, nil
	}
	if options.Semgrep || options.CodeQL {
		return nil, fmt.Errorf("the 'sarif' flag cannot be combined with 'semgrep' or 'codeql'")
	}

	inputs := make([]sarifInput, 0, len(options.SarifReports))
	for _, raw := range options.SarifReports {
		in, err := parseSarifInput(raw)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(in.Path); err != nil {
			return nil, fmt.Errorf("the SARIF report does not exist: %v", in.Path)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// parseSarifInput splits TOOL=PATH. A value without '=' is a bare path.
func parseSarifInput(raw string) (sarifInput, error) {
	tool, path, found := strings.Cut(raw, "=")
	if !found {
		tool, path = "", raw
	}
	tool = strings.TrimSpace(tool)
	path = strings.TrimSpace(path)
	if path == "" {
		return sarifInput{}, fmt.Errorf("invalid 'sarif' value %q", raw)
	}
	if found && tool == "" {
		return sarifInput{}, fmt.Errorf("invalid 'sarif' value %q: tool name is empty", raw)
	}
	return sarifInput{Tool: tool, Path: path}, nil
}
