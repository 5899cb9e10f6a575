package execution

import "time"

// Result captures the outcome of invoking a sample once.
type Result struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int64
	Duration time.Duration
	TimedOut bool
}

// CombinedOutput joins stdout and stderr for diagnostics.
func (r *Result) CombinedOutput() string {
	if r == nil {
		return ""
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}
