package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/verify"
	"samplesmoke/internal/ports"
)

// Config tunes how a Service verifies and labels its reports.
type Config struct {
	// Mode selects how the detected class is compared; ModeExact when empty.
	Mode verify.Mode
	// RunID is stamped on every report. A random UUID is used when empty.
	RunID  string
	Logger *zap.Logger
}

// Service coordinates sample execution and verification through a runtime
// implementation.
type Service struct {
	runner ports.Runner
	cases  *caseRunner
	logger *zap.Logger
	runID  string
}

// NewService constructs a Service. probe may be nil, in which case device
// availability is not checked.
func NewService(runner ports.Runner, probe ports.DeviceProbe, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := cfg.Mode
	if mode == "" {
		mode = verify.ModeExact
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger = logger.With(zap.String("run_id", runID))

	return &Service{
		runner: runner,
		cases: &caseRunner{
			runner: runner,
			probe:  probe,
			mode:   mode,
			logger: logger,
			runID:  runID,
		},
		logger: logger,
		runID:  runID,
	}
}

// RunID returns the identifier stamped on every report of this service.
func (s *Service) RunID() string {
	return s.runID
}

// RunCase executes and verifies a single test case. Failures of any kind are
// reported through the returned report's Status and Err.
func (s *Service) RunCase(ctx context.Context, tc execution.TestCase) execution.RunReport {
	return s.cases.Run(ctx, tc)
}

// ExecuteFromProducer pulls cases from the supplied producer and runs them with bounded parallelism.
//
// If maxCases is greater than zero the execution stops after the specified
// number of cases has been processed. Otherwise it keeps consuming until the
// context is cancelled or the producer signals completion via io.EOF.
//
// When onReport is provided it is invoked after every case with the
// corresponding run report. Calls may happen concurrently.
func (s *Service) ExecuteFromProducer(
	ctx context.Context,
	producer ports.CaseProducer,
	maxCases int,
	maxParallel int,
	onReport func(execution.RunReport),
) error {
	if maxParallel <= 0 {
		maxParallel = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxParallel)
	processed := 0

	finish := func(err error) error {
		wg.Wait()
		return err
	}

	for {
		if maxCases > 0 && processed >= maxCases {
			return finish(nil)
		}

		tc, err := producer.NextCase(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
				return finish(nil)
			}

			return finish(fmt.Errorf("get next case: %w", err))
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return finish(nil)
		}
		wg.Add(1)
		processed++
		go func(tc execution.TestCase) {
			defer wg.Done()
			defer func() { <-sem }()

			report := s.cases.Run(ctx, tc)
			s.logger.Debug("case finished",
				zap.String("case", tc.ID()),
				zap.String("status", string(report.Status)),
			)
			if onReport != nil {
				onReport(report)
			}
		}(tc)
	}
}

// Close releases any resources owned by the underlying runtime.
func (s *Service) Close() error {
	return s.runner.Close()
}
