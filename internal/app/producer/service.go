package producer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/matrix"
	"samplesmoke/internal/ports"
)

// Service implements ports.CaseProducer by expanding a fixed set of suites.
type Service struct {
	mu    sync.Mutex
	cases []execution.TestCase
	index int
}

var _ ports.CaseProducer = (*Service)(nil)

// NewService expands every suite up front so configuration errors surface
// before any sample runs.
func NewService(suites ...execution.Suite) (*Service, error) {
	s := &Service{}
	for _, suite := range suites {
		if err := s.AddSuite(suite); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NextCase returns the next expanded case, or io.EOF once all are consumed.
func (s *Service) NextCase(ctx context.Context) (execution.TestCase, error) {
	select {
	case <-ctx.Done():
		return execution.TestCase{}, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.cases) {
		return execution.TestCase{}, io.EOF
	}

	tc := s.cases[s.index]
	s.index++

	return tc, nil
}

// AddSuite expands suite and appends its cases to the catalogue.
func (s *Service) AddSuite(suite execution.Suite) error {
	cases, err := matrix.ExpandSuite(suite)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cases = append(s.cases, cases...)
	return nil
}

// ErrNoMatchingCases is returned by Filter when no pending case matches.
var ErrNoMatchingCases = fmt.Errorf("%w: no case matches the filter", execution.ErrConfiguration)

// Filter drops pending cases whose ID does not contain any of the patterns.
// No patterns keeps everything. When nothing would be left the pending cases
// are kept and ErrNoMatchingCases is returned.
func (s *Service) Filter(patterns ...string) error {
	if len(patterns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]execution.TestCase, 0, len(s.cases)-s.index)
	for _, tc := range s.cases[s.index:] {
		id := tc.ID()
		for _, pattern := range patterns {
			if strings.Contains(id, pattern) {
				kept = append(kept, tc)
				break
			}
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("%w %q", ErrNoMatchingCases, patterns)
	}
	s.cases = kept
	s.index = 0
	return nil
}

// Cases returns the cases not yet handed out.
func (s *Service) Cases() []execution.TestCase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]execution.TestCase(nil), s.cases[s.index:]...)
}
