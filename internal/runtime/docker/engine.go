// Package docker executes sample commands inside Docker containers.
package docker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

// Engine implements runtime.Executor backed by Docker containers.
type Engine struct {
	cli           dockerClient
	image         string
	workdir       string
	mounts        []Mount
	binds         []string
	env           []string
	nanoCPUs      int64
	defaultLimits execution.RunLimits
	logger        *zap.Logger

	imageMu    sync.Mutex
	imageReady bool
	imageErr   error
}

var _ runtimex.Executor = (*Engine)(nil)

// New constructs an Engine using the supplied configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("docker runtime: image must be configured")
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker runtime: create client: %w", err)
	}

	engine, err := newEngineWithClient(cli, cfg)
	if err != nil {
		_ = cli.Close()
		return nil, err
	}

	return engine, nil
}

func newEngineWithClient(cli dockerClient, cfg Config) (*Engine, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("docker runtime: image must be configured")
	}

	mounts := make([]Mount, 0, len(cfg.Mounts))
	for _, m := range cfg.Mounts {
		src, err := filepath.Abs(m.Source)
		if err != nil {
			return nil, fmt.Errorf("docker runtime: mount source %q: %w", m.Source, err)
		}
		mounts = append(mounts, Mount{Source: src, Target: m.Target})
	}

	binds, err := bindSpecs(mounts)
	if err != nil {
		return nil, err
	}

	workdir := cfg.Workdir
	if workdir == "" {
		workdir = "/tmp"
	}

	nanoCPUs := cfg.NanoCPUs
	if nanoCPUs <= 0 {
		nanoCPUs = 1_000_000_000
	}

	limits := normalizeLimits(cfg.DefaultLimits)
	if limits.TimeLimit == 0 {
		limits.TimeLimit = defaultTimeLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cli:           cli,
		image:         cfg.Image,
		workdir:       workdir,
		mounts:        mounts,
		binds:         binds,
		env:           append([]string(nil), cfg.Env...),
		nanoCPUs:      nanoCPUs,
		defaultLimits: limits,
		logger:        logger,
	}, nil
}

// Execute runs cmd inside a fresh container and removes it afterwards.
func (e *Engine) Execute(ctx context.Context, cmd runtimex.Command, limits execution.RunLimits) (*execution.Result, error) {
	if err := e.ensureImage(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", execution.ErrExecution, err)
	}

	argv := translateArgs(e.mounts, cmd.Argv())
	result, err := e.runSample(ctx, argv, cmd, e.effectiveLimits(limits))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", execution.ErrExecution, err)
	}
	result.Command = cmd.Argv()
	return result, nil
}

// Close releases the Docker client.
func (e *Engine) Close() error {
	if err := e.cli.Close(); err != nil {
		return fmt.Errorf("docker client: %w", err)
	}
	return nil
}

// ensureImage makes the sample image available once per engine. A local image
// is used as is; otherwise it is pulled. Pull failures are remembered unless
// they were caused by ctx ending.
func (e *Engine) ensureImage(ctx context.Context) error {
	e.imageMu.Lock()
	defer e.imageMu.Unlock()

	switch {
	case e.imageReady:
		return nil
	case e.imageErr != nil:
		return e.imageErr
	}

	_, _, err := e.cli.ImageInspectWithRaw(ctx, e.image)
	if err == nil {
		e.imageReady = true
		return nil
	}
	if !client.IsErrNotFound(err) {
		e.logger.Debug("inspect sample image", zap.String("image", e.image), zap.Error(err))
	}

	e.logger.Info("pulling sample image", zap.String("image", e.image))
	if err := e.pullImage(ctx, e.image); err != nil {
		if ctx.Err() == nil {
			e.imageErr = err
		}
		return err
	}
	e.imageReady = true
	return nil
}

const defaultTimeLimit = 5 * time.Minute

func normalizeLimits(l execution.RunLimits) execution.RunLimits {
	if l.TimeLimit < 0 {
		l.TimeLimit = 0
	}
	return l
}

func (e *Engine) effectiveLimits(request execution.RunLimits) execution.RunLimits {
	effective := e.defaultLimits
	overrides := normalizeLimits(request)
	if overrides.TimeLimit > 0 {
		effective.TimeLimit = overrides.TimeLimit
	}
	return effective
}
