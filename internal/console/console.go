// Package console is the terminal front end of the remediation workflow.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/briandowns/spinner"
	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"

	"github.com/vsecure-io/vsecure/internal/findings"
)

// Console writes to w and prompts on the process terminal.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	logger  hclog.Logger
	color   bool
	spinner *spinner.Spinner
}

// New returns a Console writing to w. Colors are enabled only when w is a
// terminal.
func New(w io.Writer, logger hclog.Logger) *Console {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	if err := s.Color("cyan"); err != nil {
		logger.Warn("failed to set spinner color", "error", err)
	}

	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd())
	}

	return &Console{w: w, logger: logger, color: color, spinner: s}
}

// StartSpinner shows message next to a spinner on stderr.
func (c *Console) StartSpinner(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return
	}
	c.spinner.Suffix = " " + message
	c.spinner.Start()
}

// StopSpinner stops the spinner if it is running.
func (c *Console) StopSpinner() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.spinner.Active() {
		c.spinner.Stop()
	}
}

// WithSpinner runs fn while the spinner is shown.
func (c *Console) WithSpinner(message string, fn func() error) error {
	c.StartSpinner(message)
	defer c.StopSpinner()
	return fn()
}

func (c *Console) askOpts() []survey.AskOpt {
	return []survey.AskOpt{
		survey.WithIcons(func(icons *survey.IconSet) {
			if c.color {
				icons.Question.Text = "?"
				icons.Question.Format = "cyan+b"
			}
		}),
	}
}

// Confirm asks a yes/no question. Without a terminal on stdin, or when the
// user interrupts, the answer is no.
func (c *Console) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		c.logger.Warn("no terminal to confirm on, declining; pass --yes to apply without asking", "prompt", prompt)
		return false, nil
	}

	var response bool
	err := survey.AskOne(&survey.Confirm{Message: prompt, Default: false}, &response, c.askOpts()...)
	if err == terminal.InterruptErr {
		return false, nil
	}
	return response, err
}

// AssumeYes approves every prompt.
func AssumeYes(context.Context, string) (bool, error) {
	return true, nil
}

// ErrNoSelection is returned by the selection prompts when the user interrupts
// or no terminal is available.
var ErrNoSelection = errors.New("nothing selected")

// SelectFinding lets the user pick one of list. done is offered as the last
// option; picking it returns -1.
func (c *Console) SelectFinding(list []findings.Finding, stale func(string) bool) (int, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return -1, ErrNoSelection
	}

	options := make([]string, 0, len(list)+1)
	for _, f := range list {
		label := fmt.Sprintf("%s  %s", f.Location(), TruncateMessage(f.Message, labelWidth))
		switch {
		case stale != nil && stale(f.FilePath):
			label += " [stale]"
		case !f.IsActionable():
			label += " [no fix]"
		}
		options = append(options, label)
	}
	options = append(options, "done")

	var idx int
	prompt := &survey.Select{Message: "Select a finding to fix:", Options: options, PageSize: 15}
	if err := survey.AskOne(prompt, &idx, c.askOpts()...); err != nil {
		if err == terminal.InterruptErr {
			return -1, ErrNoSelection
		}
		return -1, err
	}
	if idx == len(list) {
		return -1, nil
	}
	return idx, nil
}

// SelectOrigin asks how the remediation of f is meant to be applied.
func (c *Console) SelectOrigin(f findings.Finding) (findings.Origin, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return findings.LineLevel, ErrNoSelection
	}

	options := []string{
		fmt.Sprintf("replace line %d", f.Line),
		fmt.Sprintf("replace the whole file %s", f.FilePath),
	}
	var idx int
	prompt := &survey.Select{Message: "Apply the fix as:", Options: options, Default: options[0]}
	if err := survey.AskOne(prompt, &idx, c.askOpts()...); err != nil {
		if err == terminal.InterruptErr {
			return findings.LineLevel, ErrNoSelection
		}
		return findings.LineLevel, err
	}
	if idx == 1 {
		return findings.WholeFile, nil
	}
	return findings.LineLevel, nil
}
