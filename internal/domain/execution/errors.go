package execution

import "errors"

var (
	// ErrConfiguration marks defects in suite or environment configuration.
	// They are fatal for the affected case and never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrExecution marks a sample that failed to start, timed out or exited non-zero.
	ErrExecution = errors.New("execution error")
)
