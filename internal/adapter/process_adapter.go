package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
)

// killWaitDelay bounds how long Wait blocks on pipes after a kill.
const killWaitDelay = 2 * time.Second

// Command is one external process invocation. Output locations are passed
// through Args, never through the environment.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
	Label   string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// ProcessResult is the outcome of a finished process.
type ProcessResult struct {
	Command  Command
	ExitCode int
	Output   string
	TimedOut bool
	Err      error
}

// Success reports a clean zero exit.
func (r ProcessResult) Success() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}

// Process is a started external process that can be polled for completion.
type Process interface {
	// Done reports whether the process has exited. It never blocks.
	Done() bool
	// Result blocks until the process exits and returns its outcome.
	Result() ProcessResult
}

// ProcessAdapter abstracts launching external tools.
type ProcessAdapter interface {
	// Run starts cmd and waits for it.
	Run(ctx context.Context, cmd Command) ProcessResult
	// Start launches cmd without waiting.
	Start(ctx context.Context, cmd Command) (Process, error)
}

// LocalProcessAdapter runs processes with os/exec in their own process
// group so a timeout kills the whole tree.
type LocalProcessAdapter struct{}

// NewLocalProcessAdapter constructs a LocalProcessAdapter.
func NewLocalProcessAdapter() *LocalProcessAdapter {
	return &LocalProcessAdapter{}
}

// Run starts cmd and waits for it to finish.
func (a *LocalProcessAdapter) Run(ctx context.Context, cmd Command) ProcessResult {
	proc, err := a.Start(ctx, cmd)
	if err != nil {
		return ProcessResult{Command: cmd, ExitCode: -1, Err: err}
	}

	return proc.Result()
}

// Start launches cmd. The returned Process flips to done from a single
// waiter goroutine.
func (a *LocalProcessAdapter) Start(ctx context.Context, cmd Command) (Process, error) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
	}

	// #nosec G204 - commands come from the user's tool configuration
	execCmd := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.WaitDelay = killWaitDelay
	configureProcessGroup(execCmd)
	execCmd.Cancel = func() error {
		return killProcessGroup(execCmd)
	}

	var output bytes.Buffer

	execCmd.Stdout = &output
	execCmd.Stderr = &output

	if err := execCmd.Start(); err != nil {
		cancel()
		slog.Error("Failed to start process", "command", cmd.String(), "error", err)

		return nil, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	slog.Debug("Started process", "command", cmd.String(), "pid", execCmd.Process.Pid, "label", cmd.Label)

	proc := &localProcess{done: make(chan struct{})}

	go func() {
		defer cancel()
		defer close(proc.done)

		waitErr := execCmd.Wait()
		proc.result = buildResult(cmd, execCmd, output.String(), waitErr, runCtx.Err())
		proc.finished.Store(true)
	}()

	return proc, nil
}

func buildResult(cmd Command, execCmd *exec.Cmd, output string, waitErr, ctxErr error) ProcessResult {
	result := ProcessResult{Command: cmd, Output: output}

	if execCmd.ProcessState != nil {
		result.ExitCode = execCmd.ProcessState.ExitCode()
	}

	if errors.Is(ctxErr, context.DeadlineExceeded) {
		result.TimedOut = true
		slog.Warn("Process timed out", "command", cmd.String(), "timeout", cmd.Timeout)

		return result
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		result.Err = waitErr
	}

	if ctxErr != nil && result.Err == nil && result.ExitCode != 0 {
		result.Err = ctxErr
	}

	if !result.Success() {
		slog.Debug("Process finished unsuccessfully", "command", cmd.String(), "exitCode", result.ExitCode, "output", output)
	}

	return result
}

type localProcess struct {
	finished atomic.Bool
	done     chan struct{}
	result   ProcessResult
}

func (p *localProcess) Done() bool {
	return p.finished.Load()
}

func (p *localProcess) Result() ProcessResult {
	<-p.done
	return p.result
}
