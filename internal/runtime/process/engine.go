// Package process executes sample commands as local subprocesses.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

// DefaultTimeLimit bounds every invocation when neither the engine nor the
// request specify a limit.
const DefaultTimeLimit = 5 * time.Minute

// waitDelay bounds how long Wait keeps reading output after the process was
// killed, so grandchildren holding the pipes open cannot hang a case.
const waitDelay = 5 * time.Second

// Config describes how to create a process Engine.
type Config struct {
	DefaultLimits execution.RunLimits
	// Env is appended to the parent environment for every command.
	Env    []string
	Logger *zap.Logger
}

// Engine implements runtime.Executor with os/exec.
type Engine struct {
	defaultLimits execution.RunLimits
	env           []string
	logger        *zap.Logger
}

var _ runtimex.Executor = (*Engine)(nil)

// New constructs an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limits := normalizeLimits(cfg.DefaultLimits)
	if limits.TimeLimit == 0 {
		limits.TimeLimit = DefaultTimeLimit
	}

	return &Engine{
		defaultLimits: limits,
		env:           append([]string(nil), cfg.Env...),
		logger:        logger,
	}
}

// Execute runs cmd to completion under the effective time limit.
func (e *Engine) Execute(ctx context.Context, cmd runtimex.Command, limits execution.RunLimits) (*execution.Result, error) {
	effective := e.effectiveLimits(limits)

	runCtx, cancel := context.WithTimeout(ctx, effective.TimeLimit)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if len(e.env) > 0 || len(cmd.Env) > 0 {
		c.Env = append(append(os.Environ(), e.env...), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	e.logger.Debug("starting sample", zap.Strings("argv", cmd.Argv()), zap.Duration("time_limit", effective.TimeLimit))

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := &execution.Result{
		Command:  cmd.Argv(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.TimedOut = true
		result.ExitCode = -1
		if c.ProcessState != nil {
			result.ExitCode = int64(c.ProcessState.ExitCode())
		}
		return result, nil
	}

	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: run %s: %w", execution.ErrExecution, cmd.Path, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = int64(exitErr.ExitCode())
		return result, nil
	}

	return nil, fmt.Errorf("%w: start %s: %w", execution.ErrExecution, cmd.Path, err)
}

// Close is a no-op; subprocesses never outlive Execute.
func (e *Engine) Close() error {
	return nil
}

func (e *Engine) effectiveLimits(request execution.RunLimits) execution.RunLimits {
	effective := e.defaultLimits
	overrides := normalizeLimits(request)
	if overrides.TimeLimit > 0 {
		effective.TimeLimit = overrides.TimeLimit
	}
	return effective
}

func normalizeLimits(l execution.RunLimits) execution.RunLimits {
	if l.TimeLimit < 0 {
		l.TimeLimit = 0
	}
	return l
}
