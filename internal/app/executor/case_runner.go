package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/verify"
	"samplesmoke/internal/infra/devices"
	"samplesmoke/internal/ports"
)

// caseRunner drives one test case through
// construct -> (skip | execute) -> (pass | fail | error).
type caseRunner struct {
	runner ports.Runner
	probe  ports.DeviceProbe
	mode   verify.Mode
	logger *zap.Logger
	runID  string
}

func (r *caseRunner) Run(ctx context.Context, tc execution.TestCase) execution.RunReport {
	report := execution.RunReport{RunID: r.runID, Case: tc}
	logger := r.logger.With(zap.String("case", tc.ID()))

	prepared, err := r.runner.Prepare(ctx, tc)
	if err != nil {
		report.Err = err
		report.Status = execution.StatusError
		if errors.Is(err, execution.ErrConfiguration) {
			report.Status = execution.StatusConfigError
		}
		logger.Error("prepare case", zap.Error(err))
		return report
	}
	if prepared == nil {
		report.Status = execution.StatusError
		report.Err = fmt.Errorf("%w: runner returned nil prepared sample", execution.ErrExecution)
		return report
	}

	missing, err := r.missingDevice(ctx, tc)
	if err != nil {
		report.Status = execution.StatusError
		report.Err = err
		logger.Error("probe devices", zap.Error(err))
		return report
	}
	if missing != "" {
		report.Status = execution.StatusSkip
		report.Err = fmt.Errorf("device %s is not available", missing)
		logger.Info("skipping case", zap.String("device", missing))
		return report
	}

	logger.Debug("running sample", zap.Strings("command", prepared.Command()))
	result, err := prepared.Run(ctx)
	report.Result = result
	if err := executionFailure(result, err); err != nil {
		report.Status = execution.StatusError
		report.Err = err
		logger.Error("sample execution failed", zap.Error(err), zap.String("output", result.CombinedOutput()))
		return report
	}

	verdict := verify.Check(result.Stdout, tc.ExpectedTop1, r.mode)
	report.Detected = verdict.Detected
	if verdict.Passed {
		report.Status = execution.StatusPass
		return report
	}

	report.Status = execution.StatusFail
	if !verdict.Found {
		report.Err = fmt.Errorf("%w: no classification line in output", verify.ErrWrongTop1)
		logger.Warn(verify.WrongTop1, zap.String("expected", tc.ExpectedTop1))
		return report
	}
	report.Err = fmt.Errorf("%w: expected %s, detected %s", verify.ErrWrongTop1, tc.ExpectedTop1, verdict.Detected)
	logger.Warn("Detected class "+verdict.Detected,
		zap.String("expected", tc.ExpectedTop1),
		zap.Int("line", verdict.Line),
	)
	return report
}

// missingDevice returns the first requested device that the probe does not
// report, or "" when every device is available.
func (r *caseRunner) missingDevice(ctx context.Context, tc execution.TestCase) (string, error) {
	requested := tc.Devices()
	if r.probe == nil || len(requested) == 0 {
		return "", nil
	}

	available, err := r.probe.AvailableDevices(ctx)
	if err != nil {
		return "", fmt.Errorf("list devices: %w", err)
	}
	for _, device := range requested {
		if !devices.Supports(available, device) {
			return device, nil
		}
	}
	return "", nil
}

func executionFailure(result *execution.Result, err error) error {
	switch {
	case err != nil:
		if errors.Is(err, execution.ErrExecution) {
			return err
		}
		return fmt.Errorf("%w: %w", execution.ErrExecution, err)
	case result == nil:
		return fmt.Errorf("%w: no result", execution.ErrExecution)
	case result.TimedOut:
		return fmt.Errorf("%w: timed out after %s", execution.ErrExecution, result.Duration.Round(time.Millisecond))
	case result.ExitCode != 0:
		return fmt.Errorf("%w: exit code %d", execution.ErrExecution, result.ExitCode)
	default:
		return nil
	}
}
