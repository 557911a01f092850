package shared

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/vsecure-io/vsecure/pkg/shared/files"
)

// DefaultResultsFile is where a run is saved below its analysis root.
const DefaultResultsFile = ".vsecure/results.json"

// SupportedFormats lists the output formats accepted by the commands.
var SupportedFormats = []string{"human", "json", "yaml"}

// HasFlags reports whether any flag of the set was changed on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	changed := false
	flags.Visit(func(*pflag.Flag) {
		changed = true
	})
	return changed
}

// DefaultResultsPath returns the results file below root.
func DefaultResultsPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(DefaultResultsFile))
}

// ResolveResultsPath picks the results file from an explicit path or an
// optional root argument, defaulting to the current directory.
func ResolveResultsPath(explicit string, args []string) (string, error) {
	if len(args) > 1 {
		return "", fmt.Errorf("invalid argument(s) received, only one positional argument is allowed")
	}
	if explicit != "" {
		if len(args) == 1 {
			return "", fmt.Errorf("you cannot use a 'results' flag and a target path at the same time")
		}
		return files.ExpandPath(explicit)
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	expanded, err := files.ExpandPath(root)
	if err != nil {
		return "", err
	}
	return DefaultResultsPath(expanded), nil
}

// ValidateFormat checks format against SupportedFormats.
func ValidateFormat(format string) error {
	for _, f := range SupportedFormats {
		if strings.EqualFold(f, format) {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q, use one of: %s", format, strings.Join(SupportedFormats, ", "))
}
