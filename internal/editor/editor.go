package editor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/bassista/create_gh_repo/internal/logger"
	"github.com/kballard/go-shellquote"
)

// ErrLaunch is returned when the editor process could not be started.
var ErrLaunch = errors.New("editor: cannot launch")

// Result describes how the editor process ended.
type Result struct {
	Success  bool
	ExitCode int
}

// Runner opens path in an editor and blocks until the editor exits.
type Runner interface {
	Run(command, path string) (Result, error)
}

// Exec runs the editor as a child process sharing the caller's terminal.
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns an Exec wired to the process's standard streams.
func NewExec() *Exec {
	return &Exec{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes `<command> <path>`. command is split with shell quoting rules so
// values such as `code --wait` or `"/opt/my editor/bin/ed"` work. There is no
// timeout: the call returns only when the user closes the editor. A non-zero
// exit is reported in Result, not as an error.
func (e *Exec) Run(command, path string) (Result, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return Result{}, fmt.Errorf("%w: parse editor command %q: %w", ErrLaunch, command, err)
	}
	if len(args) == 0 {
		return Result{}, fmt.Errorf("%w: editor command is empty", ErrLaunch)
	}
	args = append(args, path)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	logger.WithComponent("editor").Debugf("running %q", args)
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrLaunch, err)
	}

	err = cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return Result{Success: true}, nil
	case errors.As(err, &exitErr):
		logger.WithComponent("editor").Debugf("editor exited with %d", exitErr.ExitCode())
		return Result{ExitCode: exitErr.ExitCode()}, nil
	default:
		return Result{}, fmt.Errorf("editor: wait: %w", err)
	}
}
