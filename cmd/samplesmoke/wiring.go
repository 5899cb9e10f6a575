package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"samplesmoke/internal/app/executor"
	"samplesmoke/internal/app/producer"
	"samplesmoke/internal/config"
	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/domain/verify"
	"samplesmoke/internal/infra/devices"
	"samplesmoke/internal/ports"
	runtimex "samplesmoke/internal/runtime"
	"samplesmoke/internal/runtime/docker"
	"samplesmoke/internal/runtime/process"
	"samplesmoke/internal/runtime/samples"
)

const containerRoot = "/opt/samplesmoke"

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	return zapConfig.Build()
}

func (c appConfig) limits() execution.RunLimits {
	return execution.RunLimits{TimeLimit: c.Timeout}
}

// newExecutor builds the engine selected by c.Runtime. Docker mode bind-mounts
// every configured layout directory under containerRoot.
func newExecutor(c appConfig, logger *zap.Logger) (runtimex.Executor, error) {
	switch c.Runtime {
	case runtimeProcess:
		return process.New(process.Config{
			DefaultLimits: c.limits(),
			Logger:        logger,
		}), nil
	case runtimeDocker:
		return docker.New(docker.Config{
			Image:         c.DockerImage,
			Workdir:       containerRoot,
			Mounts:        layoutMounts(c.Layout),
			DefaultLimits: c.limits(),
			Logger:        logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown runtime %q", execution.ErrConfiguration, c.Runtime)
	}
}

func layoutMounts(layout samples.Layout) []docker.Mount {
	dirs := []struct {
		source string
		target string
	}{
		{layout.BinDir, "bin"},
		{layout.PythonDir, "python"},
		{layout.ModelsDir, "models"},
		{layout.ImagesDir, "images"},
	}

	mounts := make([]docker.Mount, 0, len(dirs))
	for _, dir := range dirs {
		if dir.source == "" {
			continue
		}
		mounts = append(mounts, docker.Mount{
			Source: dir.source,
			Target: containerRoot + "/" + dir.target,
		})
	}
	return mounts
}

// harness owns the executor service and the device probe built for a command.
type harness struct {
	service *executor.Service
	probe   *devices.CommandProbe
}

func (h *harness) Close() error {
	var errs []error
	if err := h.service.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := h.closeProbe(); err != nil {
		errs = append(errs, fmt.Errorf("device probe: %w", err))
	}
	return errors.Join(errs...)
}

func newHarness(c appConfig, logger *zap.Logger) (*harness, error) {
	mode, err := verify.ParseMode(c.Compare)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", execution.ErrConfiguration, err)
	}

	h := &harness{}
	var probe ports.DeviceProbe
	if c.DeviceProbe == "" {
		probe = devices.NewStatic(devices.ParseList(c.Devices)...)
	} else {
		h.probe, err = newCommandProbe(c, logger)
		if err != nil {
			return nil, err
		}
		probe = h.probe
	}

	exec, err := newExecutor(c, logger)
	if err != nil {
		_ = h.closeProbe()
		return nil, err
	}
	runner, err := samples.New(samples.Config{
		Layout:        c.Layout,
		DefaultLimits: c.limits(),
	}, exec)
	if err != nil {
		_ = exec.Close()
		_ = h.closeProbe()
		return nil, err
	}

	h.service = executor.NewService(runner, probe, executor.Config{
		Mode:   mode,
		Logger: logger,
	})
	return h, nil
}

func (h *harness) closeProbe() error {
	if h.probe == nil {
		return nil
	}
	return h.probe.Close()
}

// newCommandProbe runs "query" as <bin-dir>/hello_query_device, or any other
// value as the program path. The probe gets an engine of its own.
func newCommandProbe(c appConfig, logger *zap.Logger) (*devices.CommandProbe, error) {
	program := c.DeviceProbe
	if program == deviceProbeQuery {
		program = filepath.Join(c.Layout.BinDir, helloQueryDeviceName)
	}

	exec, err := newExecutor(c, logger)
	if err != nil {
		return nil, err
	}
	return devices.NewCommandProbe(exec, runtimex.Command{Path: program}, logger), nil
}

func loadSuites(path string) ([]execution.Suite, error) {
	if path == "" {
		return producer.DefaultSuites(), nil
	}
	return config.LoadSuitesFile(path)
}
