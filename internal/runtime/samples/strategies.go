package samples

import (
	"context"
	"fmt"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

type variantStrategy interface {
	Command(ctx context.Context, layout Layout, tc execution.TestCase) (runtimex.Command, error)
}

func strategyForVariant(variant string) (variantStrategy, error) {
	switch variant {
	case VariantCPP:
		return &cppStrategy{}, nil
	case VariantPython:
		return &pythonStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: no strategy registered for variant %q", execution.ErrConfiguration, variant)
	}
}
