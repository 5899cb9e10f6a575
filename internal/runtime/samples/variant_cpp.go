package samples

import (
	"context"
	"fmt"
	"path/filepath"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

type cppStrategy struct{}

func (c *cppStrategy) Command(ctx context.Context, layout Layout, tc execution.TestCase) (runtimex.Command, error) {
	if tc.Sample == "" {
		return runtimex.Command{}, fmt.Errorf("%w: case %s has no sample name", execution.ErrConfiguration, tc.ID())
	}

	binary, err := resolvePath("", filepath.Join(layout.BinDir, tc.Sample))
	if err != nil {
		return runtimex.Command{}, err
	}

	if _, err := batchSize(tc); err != nil {
		return runtimex.Command{}, err
	}

	args, err := flagArgs(layout, tc, nil)
	if err != nil {
		return runtimex.Command{}, err
	}

	return runtimex.Command{
		Path: binary,
		Args: args,
	}, nil
}
