package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Process is a started ffmpeg process.
type Process struct {
	cmd    *exec.Cmd
	args   []string
	done   chan struct{}
	err    error
	stderr bytes.Buffer
}

// Start launches bin with args. The caller must Wait for the process;
// cancelling ctx kills it.
func Start(ctx context.Context, bin string, args []string) (*Process, error) {
	p := &Process{
		cmd:  exec.CommandContext(ctx, bin, args...),
		args: args,
		done: make(chan struct{}),
	}
	p.cmd.Stderr = &p.stderr

	if err := p.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	go func() {
		defer close(p.done)
		if err := p.cmd.Wait(); err != nil {
			p.err = &Error{Args: p.args, Stderr: p.stderr.String(), Err: err}
		}
	}()
	return p, nil
}

// Wait blocks until the process exits.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Stderr returns the diagnostics written so far. Only complete after Wait.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// RunResult is the outcome of a finished invocation.
type RunResult struct {
	// Logs holds everything ffmpeg wrote to stderr, on success or failure.
	Logs string
	Err  error
}

func run(ctx context.Context, bin string, args []string) RunResult {
	proc, err := Start(ctx, bin, args)
	if err != nil {
		return RunResult{Err: err}
	}
	err = proc.Wait()
	return RunResult{Logs: proc.Stderr(), Err: err}
}

// Error is a non-zero ffmpeg exit with its diagnostics.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	tail := lastLines(e.Stderr, 3)
	if tail == "" {
		return fmt.Sprintf("ffmpeg: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg: %v: %s", e.Err, tail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status, or -1 when the process did not exit
// normally.
func (e *Error) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Command renders the invocation for logs.
func (e *Error) Command() string {
	return "ffmpeg " + strings.Join(e.Args, " ")
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
