package sandbox

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// pistonPort is the port the Piston API listens on inside the container.
const pistonPort = nat.Port("2000/tcp")

// Backend is the container runtime the manager drives.
type Backend interface {
	Find(ctx context.Context, name string) (*ContainerState, error)
	Create(ctx context.Context, cfg Config) (string, error)
	Start(ctx context.Context, containerID string) error
	Remove(ctx context.Context, containerID string) error
	Close() error
}

// DockerBackend manages the Piston container through the Docker API.
type DockerBackend struct {
	client *client.Client
}

var _ Backend = (*DockerBackend)(nil)

// NewDockerBackend creates a new Docker backend.
func NewDockerBackend() (*DockerBackend, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker not reachable: %w", err)
	}

	return &DockerBackend{client: cli}, nil
}

// Find returns the container with the given name, or nil if none exists.
func (b *DockerBackend) Find(ctx context.Context, name string) (*ContainerState, error) {
	list, err := b.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", "^/"+name+"$")),
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	if len(list) == 0 {
		return nil, nil
	}

	c := list[0]
	return &ContainerState{
		ID:        c.ID,
		Image:     c.Image,
		Running:   c.State == "running",
		CreatedAt: time.Unix(c.Created, 0),
	}, nil
}

// Create pulls the image if needed and creates the Piston container with its
// API published on 127.0.0.1.
func (b *DockerBackend) Create(ctx context.Context, cfg Config) (string, error) {
	if err := b.ensureImage(ctx, cfg.Image); err != nil {
		return "", fmt.Errorf("ensure image: %w", err)
	}

	containerCfg, hostCfg := containerConfig(cfg)

	resp, err := b.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, cfg.Name)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	return resp.ID, nil
}

// containerConfig describes the Piston container. Piston isolates jobs with
// its own sandbox and needs a privileged container to do so.
func containerConfig(cfg Config) (*container.Config, *container.HostConfig) {
	containerCfg := &container.Config{
		Image:        cfg.Image,
		ExposedPorts: nat.PortSet{pistonPort: struct{}{}},
		Labels: map[string]string{
			"codecraft.sandbox": "true",
		},
	}

	hostCfg := &container.HostConfig{
		Privileged: true,
		PortBindings: nat.PortMap{
			pistonPort: []nat.PortBinding{{
				HostIP:   "127.0.0.1",
				HostPort: strconv.Itoa(cfg.Port),
			}},
		},
		Tmpfs: map[string]string{
			"/piston/jobs": "exec,uid=1000,gid=1000,mode=711",
			"/tmp":         "exec",
		},
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	return containerCfg, hostCfg
}

// Start starts a created or stopped container.
func (b *DockerBackend) Start(ctx context.Context, containerID string) error {
	if err := b.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	return nil
}

// Remove stops and removes a container.
func (b *DockerBackend) Remove(ctx context.Context, containerID string) error {
	timeout := 10
	_ = b.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout})
	if err := b.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("remove container: %w", err)
	}
	return nil
}

// Close closes the Docker client.
func (b *DockerBackend) Close() error {
	return b.client.Close()
}

func (b *DockerBackend) ensureImage(ctx context.Context, img string) error {
	if _, err := b.client.ImageInspect(ctx, img); err == nil {
		return nil
	}

	reader, err := b.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer reader.Close()
	// The pull completes when the progress stream is drained
	_, _ = io.Copy(io.Discard, reader)
	return nil
}
