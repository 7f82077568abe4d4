package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/leapstack-labs/zsplay/internal/procgroup"
)

// DefaultCommand is the compiler command line used when none is configured.
var DefaultCommand = []string{"zserio"}

// Exec runs the compiler as a subprocess.
type Exec struct {
	command []string
	timeout time.Duration
	logger  *slog.Logger
}

// ExecConfig configures an Exec compiler.
type ExecConfig struct {
	// Command is the compiler command line, e.g. ["java", "-jar", "zserio.jar"].
	Command []string
	// Timeout bounds one run; zero waits indefinitely.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewExec creates a subprocess-backed compiler.
func NewExec(cfg ExecConfig) *Exec {
	command := cfg.Command
	if len(command) == 0 {
		command = DefaultCommand
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exec{
		command: command,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Command returns the configured command line.
func (c *Exec) Command() []string {
	return c.command
}

// Compile runs the compiler and waits for it to finish.
func (c *Exec) Compile(ctx context.Context, args []string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, c.command[1:]...), args...)
	cmd := exec.CommandContext(ctx, c.command[0], argv...) //nolint:gosec // G204: command comes from config

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Wrappers such as the pip entry point spawn java, which must die with them.
	procgroup.Bind(cmd)

	c.logger.Debug("running compiler", slog.String("command", c.command[0]), slog.Any("args", argv))

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, exec.ErrWaitDelay) && ctx.Err() == nil:
		// Exited cleanly but a leftover descendant held the output pipes.
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case ctx.Err() != nil:
		result.ExitCode = -1
	default:
		return nil, fmt.Errorf("failed to run compiler %q: %w", c.command[0], err)
	}
	if ctx.Err() != nil && result.Stderr == "" {
		result.Stderr = fmt.Sprintf("compiler stopped: %v", ctx.Err())
	}
	return result, nil
}
