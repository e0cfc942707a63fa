package wifi_manager

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// execRunner is the production CommandRunner backed by os/exec.
type execRunner struct{}

// NewExecRunner returns a CommandRunner that invokes real OS commands.
func NewExecRunner() CommandRunner {
	return &execRunner{}
}

func (e *execRunner) Run(timeout time.Duration, name string, args ...string) CommandResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && ctx.Err() == nil {
			// The command ran and exited non-zero; the exit code is the
			// caller's signal, not an invocation error.
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Err = err
		}
	}

	return result
}
