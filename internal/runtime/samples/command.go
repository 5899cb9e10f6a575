package samples

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"samplesmoke/internal/domain/execution"
)

// ErrUnresolvablePath is returned when a path option does not exist on disk.
var ErrUnresolvablePath = fmt.Errorf("%w: unresolvable path", execution.ErrConfiguration)

const (
	optionInput = "i"
	optionModel = "m"
	optionBatch = "batch"
)

// resolvePath joins a relative value onto root and checks that it exists.
func resolvePath(root, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnresolvablePath)
	}

	resolved := value
	if !filepath.IsAbs(resolved) && root != "" {
		resolved = filepath.Join(root, value)
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrUnresolvablePath, value, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrUnresolvablePath, abs, err)
	}
	return abs, nil
}

// flagArgs maps case options onto "-<flag> <value>" pairs. Path options are
// resolved against the layout; the variant selector is dropped.
func flagArgs(layout Layout, tc execution.TestCase, skip map[string]bool) ([]string, error) {
	args := make([]string, 0, 2*len(tc.Params))
	for _, p := range tc.Params {
		if p.Name == execution.VariantOption || skip[p.Name] {
			continue
		}

		value := p.Value
		switch p.Name {
		case optionInput:
			resolved, err := resolvePath(layout.ImagesDir, value)
			if err != nil {
				return nil, err
			}
			value = resolved
		case optionModel:
			resolved, err := resolvePath(layout.ModelsDir, value)
			if err != nil {
				return nil, err
			}
			value = resolved
		}

		args = append(args, "-"+p.Name, value)
	}
	return args, nil
}

func batchSize(tc execution.TestCase) (int, error) {
	raw, ok := tc.Value(optionBatch)
	if !ok {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid batch size %q", execution.ErrConfiguration, raw)
	}
	return n, nil
}
