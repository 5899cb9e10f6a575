package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
)

// ErrUnknownVariant is returned for cases whose variant has no registered module.
var ErrUnknownVariant = fmt.Errorf("%w: unknown sample variant", execution.ErrConfiguration)

// Registry wires variant modules into a single ports.Runner implementation.
type Registry struct {
	mu       sync.RWMutex
	modules  map[string]Module
	fallback string
}

var _ ports.Runner = (*Registry)(nil)

// NewRegistry constructs a registry from the supplied modules. Cases that do
// not select a variant are dispatched to the first module.
func NewRegistry(mods ...Module) (*Registry, error) {
	reg := &Registry{
		modules: make(map[string]Module, len(mods)),
	}

	for _, module := range mods {
		if module == nil {
			return nil, fmt.Errorf("runtime module cannot be nil")
		}

		variant := module.Variant()
		if variant == "" {
			return nil, fmt.Errorf("runtime module missing variant identifier")
		}
		if _, exists := reg.modules[variant]; exists {
			return nil, fmt.Errorf("duplicate runtime module for variant %q", variant)
		}

		reg.modules[variant] = module
		if reg.fallback == "" {
			reg.fallback = variant
		}
	}

	if len(reg.modules) == 0 {
		return nil, fmt.Errorf("at least one runtime module must be registered")
	}

	return reg, nil
}

// Prepare dispatches the case to the module responsible for its variant.
func (r *Registry) Prepare(ctx context.Context, tc execution.TestCase) (ports.PreparedSample, error) {
	module, err := r.moduleFor(tc.Variant())
	if err != nil {
		return nil, err
	}
	return module.Prepare(ctx, tc)
}

// Close releases resources held by each module.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	for variant, module := range r.modules {
		if err := module.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", variant, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Registry) moduleFor(variant string) (Module, error) {
	if variant == "" {
		variant = r.fallback
	}

	r.mu.RLock()
	module, ok := r.modules[variant]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownVariant, variant)
	}
	return module, nil
}
