package samples

import (
	"context"
	"fmt"
	"path/filepath"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

const defaultPython = "python3"

// pythonStrategy invokes <python> <dir>/<sample>/<sample>.py. The Python
// samples take no batch flag; a batch of N is expressed by passing the input
// image N times.
type pythonStrategy struct{}

func (p *pythonStrategy) Command(ctx context.Context, layout Layout, tc execution.TestCase) (runtimex.Command, error) {
	if tc.Sample == "" {
		return runtimex.Command{}, fmt.Errorf("%w: case %s has no sample name", execution.ErrConfiguration, tc.ID())
	}

	interpreter := layout.Python
	if interpreter == "" {
		interpreter = defaultPython
	}

	script, err := resolvePath("", filepath.Join(layout.PythonDir, tc.Sample, tc.Sample+".py"))
	if err != nil {
		return runtimex.Command{}, err
	}

	batch, err := batchSize(tc)
	if err != nil {
		return runtimex.Command{}, err
	}

	args, err := flagArgs(layout, tc, map[string]bool{optionInput: true, optionBatch: true})
	if err != nil {
		return runtimex.Command{}, err
	}

	if raw, ok := tc.Value(optionInput); ok {
		image, err := resolvePath(layout.ImagesDir, raw)
		if err != nil {
			return runtimex.Command{}, err
		}
		inputs := make([]string, 0, batch+1)
		inputs = append(inputs, "-"+optionInput)
		for range batch {
			inputs = append(inputs, image)
		}
		args = append(inputs, args...)
	}

	return runtimex.Command{
		Path: interpreter,
		Args: append([]string{script}, args...),
	}, nil
}
