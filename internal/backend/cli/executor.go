package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result is the captured outcome of one subprocess invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs a command line and captures its output. A nonzero exit is
// reported through Result.ExitCode, not through the error; the error is
// reserved for failures to run the command at all. The default
// implementation shells out through os/exec; tests inject scripted
// executors.
type Executor interface {
	Exec(ctx context.Context, argv []string) (Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, argv []string) (Result, error)

func (f ExecutorFunc) Exec(ctx context.Context, argv []string) (Result, error) {
	return f(ctx, argv)
}

type osExecutor struct{}

func (osExecutor) Exec(ctx context.Context, argv []string) (Result, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("failed to execute %s: %w", argv[0], err)
	}
	return res, nil
}
