package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// sampleRun scripts the behaviour of one container created by the engine.
type sampleRun struct {
	exitCode int64
	stdout   string
	stderr   string
	// hang keeps the container running until ContainerStop is called.
	hang    bool
	waitErr error
}

type createdContainer struct {
	config     *container.Config
	hostConfig *container.HostConfig
}

type scriptedContainer struct {
	run     sampleRun
	stopped chan struct{}
}

// scriptedDockerClient hands out one scripted sampleRun per ContainerCreate.
// Containers beyond the script exit 0 with no output.
type scriptedDockerClient struct {
	mu sync.Mutex

	script     []sampleRun
	containers map[string]*scriptedContainer

	// localImages are reported by ImageInspectWithRaw; others are not found.
	localImages map[string]bool
	pullErr     error

	pulls   []string
	created []createdContainer
	removed []string
	stopped []string
	closed  bool
}

var _ dockerClient = (*scriptedDockerClient)(nil)

func newScriptedClient(runs ...sampleRun) *scriptedDockerClient {
	return &scriptedDockerClient{
		script:     runs,
		containers: make(map[string]*scriptedContainer),
	}
}

func (c *scriptedDockerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedDockerClient) ImageInspectWithRaw(_ context.Context, ref string) (types.ImageInspect, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.localImages[ref] {
		return types.ImageInspect{}, nil, errdefs.NotFound(fmt.Errorf("no such image: %s", ref))
	}
	return types.ImageInspect{ID: "sha256:" + ref}, nil, nil
}

func (c *scriptedDockerClient) ImagePull(ctx context.Context, ref string, _ image.PullOptions) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pulls = append(c.pulls, ref)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pullErr != nil {
		return nil, c.pullErr
	}
	return io.NopCloser(bytes.NewBufferString(`{"status":"done"}`)), nil
}

func (c *scriptedDockerClient) ContainerCreate(_ context.Context, config *container.Config, hostConfig *container.HostConfig, _ *network.NetworkingConfig, _ *specs.Platform, _ string) (container.CreateResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var run sampleRun
	if len(c.script) > 0 {
		run, c.script = c.script[0], c.script[1:]
	}
	id := fmt.Sprintf("sample-%d", len(c.created)+1)
	c.created = append(c.created, createdContainer{config: config, hostConfig: hostConfig})
	c.containers[id] = &scriptedContainer{run: run, stopped: make(chan struct{})}
	return container.CreateResponse{ID: id}, nil
}

func (c *scriptedDockerClient) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}
	return nil
}

func (c *scriptedDockerClient) ContainerWait(ctx context.Context, id string, _ container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	statusCh := make(chan container.WaitResponse, 1)
	errCh := make(chan error, 1)

	ctr, err := c.lookup(id)
	if err != nil {
		errCh <- err
		return statusCh, errCh
	}

	go func() {
		if ctr.run.hang {
			select {
			case <-ctr.stopped:
				statusCh <- container.WaitResponse{StatusCode: 137}
			case <-ctx.Done():
				errCh <- ctx.Err()
			}
			return
		}
		if ctr.run.waitErr != nil {
			errCh <- ctr.run.waitErr
			return
		}
		statusCh <- container.WaitResponse{StatusCode: ctr.run.exitCode}
	}()
	return statusCh, errCh
}

func (c *scriptedDockerClient) ContainerLogs(_ context.Context, id string, _ container.LogsOptions) (io.ReadCloser, error) {
	ctr, err := c.lookup(id)
	if err != nil {
		return nil, err
	}

	var stream bytes.Buffer
	if ctr.run.stdout != "" {
		if _, err := stdcopy.NewStdWriter(&stream, stdcopy.Stdout).Write([]byte(ctr.run.stdout)); err != nil {
			return nil, err
		}
	}
	if ctr.run.stderr != "" {
		if _, err := stdcopy.NewStdWriter(&stream, stdcopy.Stderr).Write([]byte(ctr.run.stderr)); err != nil {
			return nil, err
		}
	}
	return io.NopCloser(&stream), nil
}

func (c *scriptedDockerClient) ContainerStop(_ context.Context, id string, _ container.StopOptions) error {
	ctr, err := c.lookup(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = append(c.stopped, id)
	select {
	case <-ctr.stopped:
	default:
		close(ctr.stopped)
	}
	return nil
}

func (c *scriptedDockerClient) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removed = append(c.removed, id)
	delete(c.containers, id)
	return nil
}

func (c *scriptedDockerClient) lookup(id string) (*scriptedContainer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ctr, ok := c.containers[id]
	if !ok {
		return nil, errors.New("no such container: " + id)
	}
	return ctr, nil
}
