package runtime

import (
	"context"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
)

// Command is a sample invocation in argv form.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// Argv returns the full argument vector including the program path.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Executor runs commands to completion and captures their output.
//
// A command that starts and exits, with any code, yields a Result and a nil
// error. Errors are reserved for commands that could not be started or whose
// output could not be collected; they wrap execution.ErrExecution.
type Executor interface {
	Execute(ctx context.Context, cmd Command, limits execution.RunLimits) (*execution.Result, error)
	Close() error
}

// Module builds sample invocations for one implementation variant.
type Module interface {
	Variant() string
	Prepare(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error)
	Close() error
}
