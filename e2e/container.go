package e2e

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const apiPort = nat.Port("10001/tcp")

// TestContainer wraps testcontainers-go to run the capture server with its
// own X display and PulseAudio daemon. Each test gets its own host port.
type TestContainer struct {
	Name    string
	Image   string
	APIPort int // dynamically allocated host port -> container 10001
	ctr     testcontainers.Container
}

// ContainerConfig holds optional configuration for container startup.
type ContainerConfig struct {
	Env map[string]string
}

// NewTestContainer creates a new test container placeholder.
// The actual container is started when Start() is called.
func NewTestContainer(tb testing.TB, image string) *TestContainer {
	tb.Helper()
	return &TestContainer{
		Image: image,
	}
}

// Start starts the container with the given configuration using testcontainers-go.
func (c *TestContainer) Start(ctx context.Context, cfg ContainerConfig) error {
	env := make(map[string]string)
	for k, v := range cfg.Env {
		env[k] = v
	}

	opts := []testcontainers.ContainerCustomizer{
		testcontainers.WithImage(c.Image),
		testcontainers.WithExposedPorts(string(apiPort)),
		testcontainers.WithEnv(env),
		testcontainers.WithTmpfs(map[string]string{"/dev/shm": "size=512m,mode=1777"}),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.ShmSize = 512 << 20
		}),
		// Wait for the API to be ready
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/spec.yaml").
				WithPort(apiPort).
				WithStartupTimeout(2 * time.Minute),
		),
	}

	ctr, err := testcontainers.Run(ctx, c.Image, opts...)
	if err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	c.ctr = ctr

	inspect, err := ctr.Inspect(ctx)
	if err == nil {
		c.Name = inspect.Name
	}

	port, err := ctr.MappedPort(ctx, apiPort)
	if err != nil {
		return fmt.Errorf("failed to get API port: %w", err)
	}
	c.APIPort = port.Int()

	return nil
}

// Stop stops and removes the container.
func (c *TestContainer) Stop(ctx context.Context) error {
	if c.ctr == nil {
		return nil
	}
	return testcontainers.TerminateContainer(c.ctr)
}

// APIBaseURL returns the URL for the container's API server.
func (c *TestContainer) APIBaseURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.APIPort)
}

// Exec executes a command inside the container and returns the combined output.
func (c *TestContainer) Exec(ctx context.Context, cmd []string) (int, string, error) {
	exitCode, reader, err := c.ctr.Exec(ctx, cmd)
	if err != nil {
		return exitCode, "", err
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return exitCode, "", err
	}
	return exitCode, string(out), nil
}
