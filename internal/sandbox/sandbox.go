// Package sandbox runs a self-hosted Piston execution service in a local
// Docker container.
package sandbox

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the lifecycle state of the sandbox container.
type Status string

const (
	StatusMissing Status = "missing"
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Config holds sandbox container parameters.
type Config struct {
	Image    string   `json:"image"`
	Name     string   `json:"name"`
	Port     int      `json:"port"`
	Runtimes []string `json:"runtimes"` // languages installed by Up
}

// DefaultConfig returns the settings of the published Piston image.
func DefaultConfig() Config {
	return Config{
		Image:    "ghcr.io/engineer-man/piston:latest",
		Name:     "codecraft-piston",
		Port:     2000,
		Runtimes: []string{"python", "javascript", "verilog"},
	}
}

// URL returns the Piston API base URL the container is reachable on.
func (c Config) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/api/v2", c.Port)
}

// Info describes the sandbox container.
type Info struct {
	ContainerID string    `json:"container_id,omitempty"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Status      Status    `json:"status"`
	URL         string    `json:"url"`
	Runtimes    []string  `json:"runtimes,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// IsRunning returns true if the container is up.
func (i *Info) IsRunning() bool {
	return i.Status == StatusRunning
}

// ContainerState is what the backend reports about an existing container.
type ContainerState struct {
	ID        string
	Image     string
	Running   bool
	CreatedAt time.Time
}

var (
	ErrNotRunning = errors.New("sandbox is not running")
	ErrNotReady   = errors.New("sandbox did not become ready")
)
