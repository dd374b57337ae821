// Package cmdx contains [os/exec] extensions.
package cmdx

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the [Runner] backed by [os/exec]. The context bounds
// the whole command execution.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run implements [Runner].
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout := &bytes.Buffer{}
	cmd.Stdout = stdout
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	// Some platform utilities report failures via the exit code while
	// still printing parseable output, so prefer stdout when present.
	if err != nil && stdout.Len() == 0 {
		return "", err
	}
	return stdout.String(), nil
}
