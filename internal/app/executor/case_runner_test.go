package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/verify"
	"samplesmoke/internal/ports"
)

func newObservedService(t *testing.T, runner ports.Runner, probe ports.DeviceProbe, mode verify.Mode) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(runner, probe, Config{Mode: mode, RunID: "run", Logger: zap.New(core)}), logs
}

func runnerReturning(prepared *stubPreparedSample) *stubRunner {
	return &stubRunner{
		prepareFn: func(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error) {
			return prepared, nil
		},
	}
}

func TestRunCasePassesOnExpectedTop1(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] 215 0.999123\n"}}
	service, _ := newObservedService(t, runnerReturning(prepared), staticProbe{devices: []string{"CPU"}}, "")

	report := service.RunCase(context.Background(), testCase("pass"))
	if report.Status != execution.StatusPass {
		t.Fatalf("expected pass, got %q (%v)", report.Status, report.Err)
	}
	if report.Err != nil {
		t.Fatalf("expected no error, got %v", report.Err)
	}
	if report.Detected != "215" {
		t.Fatalf("expected detected 215, got %q", report.Detected)
	}
	if report.Result == nil || report.Result.Stdout == "" {
		t.Fatalf("expected captured result, got %#v", report.Result)
	}
}

func TestRunCaseLogsDetectedClassOnMismatch(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] 17 0.5\n"}}
	service, logs := newObservedService(t, runnerReturning(prepared), nil, verify.ModeExact)

	report := service.RunCase(context.Background(), testCase("mismatch"))
	if report.Status != execution.StatusFail {
		t.Fatalf("expected fail, got %q", report.Status)
	}
	if !errors.Is(report.Err, verify.ErrWrongTop1) {
		t.Fatalf("expected wrong top1 error, got %v", report.Err)
	}
	if report.Detected != "17" {
		t.Fatalf("expected detected 17, got %q", report.Detected)
	}
	if got := logs.FilterMessage("Detected class 17").Len(); got != 1 {
		t.Fatalf("expected one detected class log entry, got %d", got)
	}
}

func TestRunCaseFailsWithoutClassificationLine(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] Loading model\n[ INFO ] Done\n"}}
	service, logs := newObservedService(t, runnerReturning(prepared), nil, "")

	report := service.RunCase(context.Background(), testCase("empty"))
	if report.Status != execution.StatusFail {
		t.Fatalf("expected fail, got %q", report.Status)
	}
	if !errors.Is(report.Err, verify.ErrWrongTop1) {
		t.Fatalf("expected wrong top1 error, got %v", report.Err)
	}
	if report.Detected != "" {
		t.Fatalf("expected no detected class, got %q", report.Detected)
	}
	if got := logs.FilterMessage(verify.WrongTop1).Len(); got != 1 {
		t.Fatalf("expected one wrong top1 log entry, got %d", got)
	}
}

func TestRunCaseLenientModeAcceptsSubstring(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] 2150 0.7\n"}}

	exact, _ := newObservedService(t, runnerReturning(prepared), nil, verify.ModeExact)
	if report := exact.RunCase(context.Background(), testCase("exact")); report.Status != execution.StatusFail {
		t.Fatalf("exact mode: expected fail, got %q", report.Status)
	}

	lenient, _ := newObservedService(t, runnerReturning(prepared), nil, verify.ModeLenient)
	if report := lenient.RunCase(context.Background(), testCase("lenient")); report.Status != execution.StatusPass {
		t.Fatalf("lenient mode: expected pass, got %q", report.Status)
	}
}

func TestRunCaseSkipsUnavailableDevice(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] 215 0.9\n"}}
	service, _ := newObservedService(t, runnerReturning(prepared), staticProbe{devices: []string{"GPU.0"}}, "")

	report := service.RunCase(context.Background(), testCase("skip"))
	if report.Status != execution.StatusSkip {
		t.Fatalf("expected skip, got %q", report.Status)
	}
	if prepared.runs() != 0 {
		t.Fatalf("expected no subprocess invocation, got %d", prepared.runs())
	}
	if report.Status.Failed() {
		t.Fatalf("skip must not count as a failure")
	}
}

func TestRunCaseProbeErrorIsExecutionError(t *testing.T) {
	t.Parallel()

	prepared := &stubPreparedSample{}
	probeErr := errors.New("query failed")
	service, _ := newObservedService(t, runnerReturning(prepared), staticProbe{err: probeErr}, "")

	report := service.RunCase(context.Background(), testCase("probe"))
	if report.Status != execution.StatusError {
		t.Fatalf("expected error status, got %q", report.Status)
	}
	if !errors.Is(report.Err, probeErr) {
		t.Fatalf("expected probe error, got %v", report.Err)
	}
	if prepared.runs() != 0 {
		t.Fatalf("expected no subprocess invocation")
	}
}

func TestRunCaseConfigurationError(t *testing.T) {
	t.Parallel()

	cfgErr := errors.Join(execution.ErrConfiguration, errors.New("missing model"))
	service, _ := newObservedService(t, &stubRunner{
		prepareFn: func(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error) {
			return nil, cfgErr
		},
	}, staticProbe{devices: []string{"CPU"}}, "")

	report := service.RunCase(context.Background(), testCase("config"))
	if report.Status != execution.StatusConfigError {
		t.Fatalf("expected config error status, got %q", report.Status)
	}
	if !errors.Is(report.Err, execution.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", report.Err)
	}
	if report.Result != nil {
		t.Fatalf("expected no result, got %#v", report.Result)
	}
}

func TestRunCaseExecutionErrors(t *testing.T) {
	t.Parallel()

	startErr := errors.New("exec: not found")
	cases := []struct {
		name     string
		prepared *stubPreparedSample
		contains string
	}{
		{
			name:     "start failure",
			prepared: &stubPreparedSample{err: startErr},
			contains: "not found",
		},
		{
			name:     "non-zero exit",
			prepared: &stubPreparedSample{result: &execution.Result{Stdout: "[ INFO ] 215 0.9\n", ExitCode: 139}},
			contains: "exit code 139",
		},
		{
			name:     "timeout",
			prepared: &stubPreparedSample{result: &execution.Result{TimedOut: true}},
			contains: "timed out",
		},
		{
			name:     "nil result",
			prepared: &stubPreparedSample{},
			contains: "no result",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, _ := newObservedService(t, runnerReturning(tc.prepared), nil, "")
			report := service.RunCase(context.Background(), testCase(tc.name))
			if report.Status != execution.StatusError {
				t.Fatalf("expected error status, got %q", report.Status)
			}
			if !errors.Is(report.Err, execution.ErrExecution) {
				t.Fatalf("expected execution error, got %v", report.Err)
			}
			if !strings.Contains(report.Err.Error(), tc.contains) {
				t.Fatalf("expected error to mention %q, got %v", tc.contains, report.Err)
			}
			if report.Detected != "" {
				t.Fatalf("execution errors must not be verified, detected %q", report.Detected)
			}
		})
	}
}
