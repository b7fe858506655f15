package nextflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// Process describes one subprocess invocation
type Process struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// ExternalProcess runs a Process to completion and reports its exit code.
// A non-zero exit is not an error; err is reserved for failures to start or wait.
type ExternalProcess interface {
	Run(ctx context.Context, p Process) (exitCode int, err error)
}

// ExecProcess runs processes with os/exec.
// On context cancellation the child gets SIGTERM, then SIGKILL after GracePeriod.
type ExecProcess struct {
	GracePeriod time.Duration
}

const defaultGracePeriod = 30 * time.Second

func (e ExecProcess) Run(ctx context.Context, p Process) (int, error) {
	cmd := exec.CommandContext(ctx, p.Path, p.Args...)
	cmd.Env = p.Env
	cmd.Dir = p.Dir
	cmd.Stdout = p.Stdout
	cmd.Stderr = p.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.GracePeriod
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = defaultGracePeriod
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1, fmt.Errorf("failed to execute %s: %w", p.Path, err)
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}
