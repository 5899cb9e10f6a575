package execution

// Status is the terminal state of a single test case.
type Status string

const (
	StatusPass        Status = "pass"
	StatusFail        Status = "fail"
	StatusSkip        Status = "skip"
	StatusError       Status = "error"
	StatusConfigError Status = "config_error"
)

// Failed reports whether the status should make the overall run unsuccessful.
func (s Status) Failed() bool {
	switch s {
	case StatusFail, StatusError, StatusConfigError:
		return true
	default:
		return false
	}
}
