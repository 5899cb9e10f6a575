package execution

import "time"

// RunLimits describes optional resource boundaries for a single sample invocation.
//
// A zero value RunLimits defers to the engine default.
type RunLimits struct {
	// TimeLimit caps how long the sample is allowed to run. Zero means the engine default.
	TimeLimit time.Duration
}
