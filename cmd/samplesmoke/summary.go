package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"samplesmoke/internal/domain/execution"
)

var errCasesFailed = errors.New("one or more cases failed")

var summaryOrder = []execution.Status{
	execution.StatusPass,
	execution.StatusFail,
	execution.StatusSkip,
	execution.StatusError,
	execution.StatusConfigError,
}

// summary prints one line per finished case and tallies statuses. Record is
// safe for concurrent use.
type summary struct {
	mu     sync.Mutex
	out    io.Writer
	counts map[execution.Status]int
	total  int
}

func newSummary(out io.Writer) *summary {
	return &summary{out: out, counts: make(map[execution.Status]int)}
}

func (s *summary) Record(report execution.RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[report.Status]++
	s.total++

	line := fmt.Sprintf("%-12s %s", strings.ToUpper(string(report.Status)), report.Case.ID())
	if report.Result != nil {
		line += fmt.Sprintf(" (%s)", report.Result.Duration.Round(time.Millisecond))
	}
	if report.Err != nil {
		line += ": " + report.Err.Error()
	}
	fmt.Fprintln(s.out, line)
}

// Finish prints the totals and returns errCasesFailed when any case failed.
func (s *summary) Finish(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make([]string, 0, len(summaryOrder))
	failed := false
	for _, status := range summaryOrder {
		parts = append(parts, fmt.Sprintf("%d %s", s.counts[status], status))
		if status.Failed() && s.counts[status] > 0 {
			failed = true
		}
	}
	fmt.Fprintf(s.out, "run %s: %d cases: %s\n", runID, s.total, strings.Join(parts, ", "))

	if failed {
		return errCasesFailed
	}
	return nil
}
