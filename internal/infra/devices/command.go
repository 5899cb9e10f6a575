package devices

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
	runtimex "samplesmoke/internal/runtime"
)

const (
	availableMarker   = "Available devices:"
	defaultProbeLimit = time.Minute
)

// CommandProbe runs a device query program (hello_query_device) once and
// parses its device listing. Results, including failures, are cached.
type CommandProbe struct {
	executor runtimex.Executor
	command  runtimex.Command
	logger   *zap.Logger

	once    sync.Once
	devices []string
	err     error
}

var _ ports.DeviceProbe = (*CommandProbe)(nil)

// NewCommandProbe builds a probe that runs command through executor. The probe
// owns the executor and closes it on Close.
func NewCommandProbe(executor runtimex.Executor, command runtimex.Command, logger *zap.Logger) *CommandProbe {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandProbe{
		executor: executor,
		command:  command,
		logger:   logger,
	}
}

func (p *CommandProbe) AvailableDevices(ctx context.Context) ([]string, error) {
	p.once.Do(func() {
		p.devices, p.err = p.probe(ctx)
		if p.err == nil {
			p.logger.Info("detected devices", zap.Strings("devices", p.devices))
		}
	})
	if p.err != nil {
		return nil, p.err
	}
	return append([]string(nil), p.devices...), nil
}

func (p *CommandProbe) probe(ctx context.Context) ([]string, error) {
	result, err := p.executor.Execute(ctx, p.command, execution.RunLimits{TimeLimit: defaultProbeLimit})
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	if result.TimedOut {
		return nil, fmt.Errorf("%w: query devices: timed out", execution.ErrExecution)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w: query devices: exit code %d: %s", execution.ErrExecution, result.ExitCode, strings.TrimSpace(result.CombinedOutput()))
	}
	return ParseQueryOutput(result.Stdout), nil
}

// ParseQueryOutput extracts device names from hello_query_device output:
//
//	[ INFO ] Available devices:
//	[ INFO ] CPU
//	[ INFO ] 	SUPPORTED_PROPERTIES:
//	[ INFO ] GPU.0
//
// Indented lines are device properties and are ignored, except for the
// "Device: CPU" form printed by older releases.
func ParseQueryOutput(stdout string) []string {
	var devices []string
	listing := false
	for _, raw := range strings.Split(stdout, "\n") {
		line := stripLogPrefix(strings.TrimRight(raw, "\r"))
		if strings.Contains(line, availableMarker) {
			listing = true
			if rest := strings.TrimSpace(line[strings.Index(line, availableMarker)+len(availableMarker):]); rest != "" {
				devices = append(devices, strings.Fields(rest)...)
			}
			continue
		}
		if !listing || line == "" {
			continue
		}
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "Device: "); ok && isDeviceName(name) {
			devices = append(devices, name)
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		if name := strings.TrimSpace(line); isDeviceName(name) {
			devices = append(devices, name)
		}
	}
	return devices
}

// stripLogPrefix removes a leading "[ LEVEL ] " token, keeping any
// indentation that follows it.
func stripLogPrefix(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if !strings.HasPrefix(trimmed, "[") {
		return line
	}
	end := strings.IndexByte(trimmed, ']')
	if end < 0 {
		return line
	}
	rest := trimmed[end+1:]
	return strings.TrimPrefix(rest, " ")
}

func isDeviceName(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_':
		default:
			return false
		}
	}
	return true
}

// Close releases the underlying executor.
func (p *CommandProbe) Close() error {
	return p.executor.Close()
}
