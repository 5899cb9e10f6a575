package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	typesimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	runtimex "samplesmoke/internal/runtime"
)

const (
	stopGrace    = 5 * time.Second
	reapDeadline = 15 * time.Second
	// killedExitCode is reported when a stopped container never reports
	// its own status.
	killedExitCode = -1
)

func (e *Engine) pullImage(ctx context.Context, ref string) error {
	progress, err := e.cli.ImagePull(ctx, ref, typesimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", ref, err)
	}
	defer progress.Close()
	if _, err := io.Copy(io.Discard, progress); err != nil {
		return fmt.Errorf("read pull progress for %s: %w", ref, err)
	}
	return nil
}

// runSample runs one sample invocation in a throwaway container. A sample that
// outlives limits.TimeLimit is stopped and reported with TimedOut set.
func (e *Engine) runSample(ctx context.Context, argv []string, cmd runtimex.Command, limits execution.RunLimits) (*execution.Result, error) {
	id, err := e.createContainer(ctx, argv, cmd)
	if err != nil {
		return nil, err
	}
	defer e.removeContainer(id)

	logger := e.logger.With(zap.String("container", id))
	logger.Debug("starting sample container", zap.Strings("argv", argv))

	started := time.Now()
	if err := e.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	exitCode, timedOut, err := e.awaitSample(ctx, id, limits.TimeLimit)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(started)
	if timedOut {
		logger.Warn("sample exceeded time limit", zap.Duration("limit", limits.TimeLimit))
	}

	// Output is still collected when ctx ended during the run.
	logCtx := ctx
	if ctx.Err() != nil {
		logCtx = context.Background()
	}
	stdout, stderr, err := e.collectOutput(logCtx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch logs: %w", err)
	}

	return &execution.Result{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: elapsed,
		TimedOut: timedOut,
	}, nil
}

func (e *Engine) createContainer(ctx context.Context, argv []string, cmd runtimex.Command) (string, error) {
	workdir := e.workdir
	if cmd.Dir != "" {
		workdir = translatePath(e.mounts, cmd.Dir)
	}

	config := &container.Config{
		Image:        e.image,
		Cmd:          argv,
		Env:          append(append([]string(nil), e.env...), cmd.Env...),
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	}
	hostConfig := &container.HostConfig{
		Binds:     e.binds,
		Resources: container.Resources{NanoCPUs: e.nanoCPUs},
	}

	created, err := e.cli.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return created.ID, nil
}

func (e *Engine) removeContainer(id string) {
	if err := e.cli.ContainerRemove(context.Background(), id, container.RemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		e.logger.Warn("failed to remove sample container", zap.String("container", id), zap.Error(err))
	}
}

// awaitSample waits for the container to exit within limit. On expiry it
// stops the container and reaps its exit status.
func (e *Engine) awaitSample(ctx context.Context, id string, limit time.Duration) (int64, bool, error) {
	limitCtx, cancel := context.WithTimeout(ctx, limit)
	exitCode, err := e.waitForExit(limitCtx, id)
	cancel()
	switch {
	case err == nil:
		return exitCode, false, nil
	case !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		return 0, false, err
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopGrace)
	defer cancelStop()
	if err := e.cli.ContainerStop(stopCtx, id, container.StopOptions{}); err != nil && !client.IsErrNotFound(err) {
		return 0, true, fmt.Errorf("stop container after time limit: %w", err)
	}

	reapCtx, cancelReap := context.WithTimeout(context.Background(), reapDeadline)
	defer cancelReap()
	exitCode, err = e.waitForExit(reapCtx, id)
	switch {
	case err == nil:
		return exitCode, true, nil
	case errors.Is(err, context.DeadlineExceeded), client.IsErrNotFound(err):
		return killedExitCode, true, nil
	default:
		return 0, true, fmt.Errorf("wait for container after time limit: %w", err)
	}
}

func (e *Engine) waitForExit(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := e.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return 0, fmt.Errorf("container error: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-errCh:
		return 0, fmt.Errorf("wait for container: %w", err)
	case <-ctx.Done():
		return 0, fmt.Errorf("wait for container: %w", ctx.Err())
	}
}

// collectOutput demultiplexes the container log stream into stdout and stderr.
func (e *Engine) collectOutput(ctx context.Context, id string) (string, string, error) {
	stream, err := e.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", "", err
	}
	defer stream.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, stream); err != nil {
		return "", "", err
	}
	return stdout.String(), stderr.String(), nil
}
