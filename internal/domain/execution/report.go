package execution

// RunReport captures the outcome of running a TestCase.
type RunReport struct {
	RunID    string
	Case     TestCase
	Status   Status
	Result   *Result
	Detected string
	Err      error
}
