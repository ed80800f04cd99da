package ldd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"

	"github.com/alessio/shellescape"
)

// waitDelay bounds how long Run waits for output pipes after the loader was killed.
const waitDelay = time.Second

// RunResult holds the outcome of a loader process that ran to completion.
type RunResult struct {
	Stdout []byte
	Stderr []byte

	// ExitCode is -1 when the process was terminated by a signal.
	ExitCode int

	// Status is the process status as printed by os.ProcessState.
	Status string
}

// LoaderRunner runs the dynamic loader.
//
// A non-zero exit is not an error: it is reported through RunResult.ExitCode.
// Run returns an error only when the process could not be started or was
// stopped because ctx was done.
type LoaderRunner interface {
	Run(ctx context.Context, name string, args []string) (*RunResult, error)
}

// ExecRunner runs the loader as a child process with os/exec.
type ExecRunner struct {
	// Env is the child's environment. Nil inherits the current environment.
	Env []string
}

// NewExecRunner creates an ExecRunner inheriting the current environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements LoaderRunner.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string) (*RunResult, error) {
	slog.Debug("running dynamic loader",
		slog.String("command", shellescape.QuoteCommand(append([]string{name}, args...))))

	// #nosec G204 - the loader path comes from the binary's own .interp section
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.Env
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &RunResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		result.Status = cmd.ProcessState.String()
	}

	slog.Debug("dynamic loader finished",
		slog.String("loader", name),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("elapsed", time.Since(start)))

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return result, nil
		}
		return result, err
	}
	return result, nil
}
