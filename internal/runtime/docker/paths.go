package docker

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// translateArgs rewrites host paths below a mount source to the matching
// path inside the container. Other arguments are passed through unchanged.
func translateArgs(mounts []Mount, args []string) []string {
	out := make([]string, len(args))
	for idx, arg := range args {
		out[idx] = translatePath(mounts, arg)
	}
	return out
}

func translatePath(mounts []Mount, arg string) string {
	if !filepath.IsAbs(arg) {
		return arg
	}
	clean := filepath.Clean(arg)
	for _, m := range mounts {
		src := filepath.Clean(m.Source)
		if clean == src {
			return m.Target
		}
		rel, err := filepath.Rel(src, clean)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return path.Join(m.Target, filepath.ToSlash(rel))
	}
	return arg
}

func bindSpecs(mounts []Mount) ([]string, error) {
	binds := make([]string, 0, len(mounts))
	for _, m := range mounts {
		if m.Source == "" || m.Target == "" {
			return nil, fmt.Errorf("docker runtime: mount requires source and target, got %+v", m)
		}
		src, err := filepath.Abs(m.Source)
		if err != nil {
			return nil, fmt.Errorf("docker runtime: mount source %q: %w", m.Source, err)
		}
		binds = append(binds, src+":"+m.Target+":ro")
	}
	return binds, nil
}
