package ports

import (
	"context"

	"samplesmoke/internal/domain/execution"
)

// PreparedSample is a fully resolved sample invocation ready to run.
type PreparedSample interface {
	Command() []string
	Run(ctx context.Context) (*execution.Result, error)
}

// Runner resolves test cases into runnable sample invocations.
//
// Prepare fails with an error wrapping execution.ErrConfiguration when the
// case cannot be turned into a command line (unknown variant, missing paths).
type Runner interface {
	Prepare(ctx context.Context, tc execution.TestCase) (PreparedSample, error)
	Close() error
}
