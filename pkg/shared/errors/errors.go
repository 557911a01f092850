package errors

import (
	"errors"
	"fmt"
)

// Failure kinds. Every one of them is recoverable.
var (
	ErrNoFixAvailable      = errors.New("no fix available")
	ErrStaleFinding        = errors.New("stale finding")
	ErrIO                  = errors.New("io error")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrMalformedRecord     = errors.New("malformed record")
)

// FixError ties a failure kind to the file and line it concerns.
type FixError struct {
	Kind error
	File string
	Line int
	Err  error
}

func (e *FixError) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.File != "" && e.Line > 0:
		msg = fmt.Sprintf("%s: %s:%d", msg, e.File, e.Line)
	case e.File != "":
		msg = fmt.Sprintf("%s: %s", msg, e.File)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *FixError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewFixError constructs a FixError. line <= 0 omits the line from the message.
func NewFixError(kind error, file string, line int, err error) error {
	return &FixError{Kind: kind, File: file, Line: line, Err: err}
}

// NewIOError wraps a filesystem failure on file.
func NewIOError(file string, err error) error {
	return &FixError{Kind: ErrIO, File: file, Err: err}
}

// NewAnalysisUnavailableError wraps a transport failure with a human readable message.
func NewAnalysisUnavailableError(format string, args ...interface{}) error {
	return &FixError{Kind: ErrAnalysisUnavailable, Err: fmt.Errorf(format, args...)}
}

// Kind returns the failure kind carried by err, or nil if err is not one of them.
func Kind(err error) error {
	for _, kind := range []error{ErrNoFixAvailable, ErrStaleFinding, ErrIO, ErrAnalysisUnavailable, ErrMalformedRecord} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// CommandError carries the process exit code for a failed command.
type CommandError struct {
	ExitCode    int
	CommonError string
	Err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError wrapping err.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Err:         err,
	}
}
