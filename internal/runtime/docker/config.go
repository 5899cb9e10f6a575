package docker

import (
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
)

// Config describes how to create a Docker-backed executor.
type Config struct {
	// Image contains the sample binaries' runtime dependencies.
	Image   string
	Workdir string
	// Mounts expose host directories (samples, models, images) inside the
	// container. Host paths in the command line are rewritten accordingly.
	Mounts        []Mount
	Env           []string
	DefaultLimits execution.RunLimits
	// NanoCPUs caps CPU usage; zero means one CPU.
	NanoCPUs int64
	Logger   *zap.Logger
}

// Mount binds a host directory read-only into the container.
type Mount struct {
	Source string
	Target string
}
