package samples

import (
	"context"
	"fmt"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
	runtimex "samplesmoke/internal/runtime"
)

type module struct {
	variant       string
	layout        Layout
	strategy      variantStrategy
	executor      runtimex.Executor
	defaultLimits execution.RunLimits
}

func newModule(variant string, cfg Config, executor runtimex.Executor) (runtimex.Module, error) {
	strategy, err := strategyForVariant(variant)
	if err != nil {
		return nil, err
	}

	return &module{
		variant:       variant,
		layout:        cfg.Layout,
		strategy:      strategy,
		executor:      executor,
		defaultLimits: cfg.DefaultLimits,
	}, nil
}

func (m *module) Variant() string {
	return m.variant
}

func (m *module) Prepare(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error) {
	if v := tc.Variant(); v != "" && v != m.variant {
		return nil, fmt.Errorf("%w: case variant %q does not match module %q", execution.ErrConfiguration, v, m.variant)
	}

	cmd, err := m.strategy.Command(ctx, m.layout, tc)
	if err != nil {
		return nil, err
	}

	limits := tc.Limits
	if limits.TimeLimit <= 0 {
		limits = m.defaultLimits
	}

	return &preparedSample{
		cmd:      cmd,
		limits:   limits,
		executor: m.executor,
	}, nil
}

func (m *module) Close() error {
	return nil
}

type preparedSample struct {
	cmd      runtimex.Command
	limits   execution.RunLimits
	executor runtimex.Executor
}

func (p *preparedSample) Command() []string {
	return p.cmd.Argv()
}

func (p *preparedSample) Run(ctx context.Context) (*execution.Result, error) {
	return p.executor.Execute(ctx, p.cmd, p.limits)
}
