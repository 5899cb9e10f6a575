// Package samples turns test cases into sample command lines and runs them
// through an Executor.
package samples

import (
	"context"
	"errors"
	"fmt"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
	runtimex "samplesmoke/internal/runtime"
)

// Runner implements ports.Runner for the configured sample variants.
type Runner struct {
	registry *runtimex.Registry
	executor runtimex.Executor
}

var _ ports.Runner = (*Runner)(nil)

// New builds a Runner that executes every variant through executor. The
// Runner owns the executor and closes it on Close.
func New(cfg Config, executor runtimex.Executor) (*Runner, error) {
	if executor == nil {
		return nil, fmt.Errorf("samples: executor must be provided")
	}

	variants := cfg.Variants
	if len(variants) == 0 {
		variants = []string{VariantCPP, VariantPython}
	}

	modules := make([]runtimex.Module, 0, len(variants))
	for _, variant := range variants {
		module, err := newModule(variant, cfg, executor)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}

	registry, err := runtimex.NewRegistry(modules...)
	if err != nil {
		return nil, err
	}

	return &Runner{
		registry: registry,
		executor: executor,
	}, nil
}

// Prepare delegates to the underlying registry.
func (r *Runner) Prepare(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error) {
	return r.registry.Prepare(ctx, tc)
}

// Close releases module resources and the executor.
func (r *Runner) Close() error {
	var errs []error
	if err := r.registry.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.executor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("executor: %w", err))
	}
	return errors.Join(errs...)
}
