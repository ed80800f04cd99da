// Package execenv replaces the current process with another command running
// under an explicit environment, like execvpe(3).
package execenv

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// Static errors
var (
	// ErrEmptyCommand is returned when no command is given.
	ErrEmptyCommand = errors.New("command cannot be empty")

	// ErrInvalidArgument is returned when a command, argument or environment
	// entry contains a NUL byte.
	ErrInvalidArgument = errors.New("argument contains NUL byte")

	// ErrMalformedEnv is returned when an environment entry is not KEY=VALUE.
	ErrMalformedEnv = errors.New("malformed environment entry (expected KEY=VALUE)")
)

// ExecError reports a failed process replacement.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute command %q: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// execFunc performs the process replacement. Tests replace it to observe the call.
var execFunc = unix.Exec

// lookPath resolves a command name without a slash through PATH.
var lookPath = exec.LookPath

// Exec replaces the current process with command. args excludes argv[0],
// which is set to command. env is the complete environment of the new
// process, each entry in KEY=VALUE form. A command without a slash is
// searched for in PATH.
//
// Exec does not return on success.
func Exec(command string, args []string, env []string) error {
	if command == "" {
		return ErrEmptyCommand
	}
	if err := validate(command, args, env); err != nil {
		return err
	}

	slog.Info("Executing command", slog.String("command", command), slog.Any("args", args))
	slog.Debug("Command environment", slog.Any("env", env))

	path := command
	if !strings.Contains(command, "/") {
		resolved, err := lookPath(command)
		if err != nil {
			slog.Error("Failed to execute command", slog.String("command", command), slog.Any("error", err))
			return &ExecError{Command: command, Err: err}
		}
		path = resolved
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, command)
	argv = append(argv, args...)

	if err := execFunc(path, argv, env); err != nil {
		slog.Error("Failed to execute command", slog.String("command", command), slog.Any("error", err))
		return &ExecError{Command: command, Err: err}
	}
	return nil
}

func validate(command string, args []string, env []string) error {
	if strings.ContainsRune(command, 0) {
		return fmt.Errorf("%w: command %q", ErrInvalidArgument, command)
	}
	for i, arg := range args {
		if strings.ContainsRune(arg, 0) {
			return fmt.Errorf("%w: argument %d", ErrInvalidArgument, i)
		}
	}
	for _, entry := range env {
		if strings.ContainsRune(entry, 0) {
			return fmt.Errorf("%w: environment entry %q", ErrInvalidArgument, entry)
		}
		key, _, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return fmt.Errorf("%w: %q", ErrMalformedEnv, entry)
		}
	}
	return nil
}
