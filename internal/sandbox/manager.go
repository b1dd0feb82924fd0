package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/piston"
)

// Packages is the Piston package API of the running container.
type Packages interface {
	Runtimes(ctx context.Context) ([]piston.InstalledRuntime, error)
	InstallPackage(ctx context.Context, language string) error
}

// Manager drives the sandbox lifecycle: up, down, status and runtime install.
type Manager struct {
	cfg      Config
	backend  Backend
	packages Packages

	// ReadyTimeout bounds how long Up waits for the API to answer
	ReadyTimeout time.Duration
	pollInterval time.Duration
}

// NewManager creates a new sandbox manager.
func NewManager(cfg Config, backend Backend, packages Packages) *Manager {
	def := DefaultConfig()
	if cfg.Image == "" {
		cfg.Image = def.Image
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}

	return &Manager{
		cfg:          cfg,
		backend:      backend,
		packages:     packages,
		ReadyTimeout: 60 * time.Second,
		pollInterval: time.Second,
	}
}

// Config returns the effective sandbox configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Up ensures the container exists and runs, waits for the API and installs
// the configured runtimes. Calling Up on a running sandbox only installs
// missing runtimes.
func (m *Manager) Up(ctx context.Context) (*Info, error) {
	state, err := m.backend.Find(ctx, m.cfg.Name)
	if err != nil {
		return nil, err
	}

	switch {
	case state == nil:
		id, err := m.backend.Create(ctx, m.cfg)
		if err != nil {
			return nil, err
		}
		if err := m.backend.Start(ctx, id); err != nil {
			_ = m.backend.Remove(ctx, id)
			return nil, err
		}
		slog.Info("sandbox created", "name", m.cfg.Name, "container_id", shortID(id), "image", m.cfg.Image)

	case !state.Running:
		if err := m.backend.Start(ctx, state.ID); err != nil {
			return nil, err
		}
		slog.Info("sandbox started", "name", m.cfg.Name, "container_id", shortID(state.ID))
	}

	if err := m.waitReady(ctx); err != nil {
		return nil, err
	}

	if _, err := m.Install(ctx, m.cfg.Runtimes...); err != nil {
		return nil, err
	}

	return m.Status(ctx)
}

// Down stops and removes the container. It is a no-op when none exists.
func (m *Manager) Down(ctx context.Context) error {
	state, err := m.backend.Find(ctx, m.cfg.Name)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}

	if err := m.backend.Remove(ctx, state.ID); err != nil {
		return err
	}
	slog.Info("sandbox removed", "name", m.cfg.Name, "container_id", shortID(state.ID))
	return nil
}

// Status reports the container state and, when running, the installed
// runtimes.
func (m *Manager) Status(ctx context.Context) (*Info, error) {
	info := &Info{
		Name:   m.cfg.Name,
		Image:  m.cfg.Image,
		Status: StatusMissing,
		URL:    m.cfg.URL(),
	}

	state, err := m.backend.Find(ctx, m.cfg.Name)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return info, nil
	}

	info.ContainerID = state.ID
	info.Image = state.Image
	info.CreatedAt = state.CreatedAt
	info.Status = StatusStopped
	if !state.Running {
		return info, nil
	}
	info.Status = StatusRunning

	installed, err := m.packages.Runtimes(ctx)
	if err != nil {
		// The API may still be booting
		slog.Debug("sandbox runtimes unavailable", "error", err)
		return info, nil
	}
	for _, rt := range installed {
		info.Runtimes = append(info.Runtimes, rt.Language+"-"+rt.Version)
	}
	sort.Strings(info.Runtimes)
	return info, nil
}

// Install installs the runtimes for the given languages that are not yet
// present and returns the languages it installed.
func (m *Manager) Install(ctx context.Context, languages ...string) ([]string, error) {
	for _, lang := range languages {
		if !piston.IsSupported(lang) {
			return nil, &piston.UnsupportedLanguageError{Language: lang}
		}
	}

	installed, err := m.packages.Runtimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}

	var added []string
	for _, lang := range languages {
		rt, _ := piston.RuntimeFor(lang)
		if hasRuntime(installed, rt) {
			continue
		}

		slog.Info("installing runtime", "language", lang, "runtime", rt.ID, "version", rt.Version)
		if err := m.packages.InstallPackage(ctx, lang); err != nil {
			return added, err
		}
		added = append(added, lang)
	}

	return added, nil
}

func (m *Manager) waitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		_, err := m.packages.Runtimes(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s: %v", ErrNotReady, m.ReadyTimeout, err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

func hasRuntime(installed []piston.InstalledRuntime, rt piston.Runtime) bool {
	for _, r := range installed {
		if r.Language == rt.ID && r.Version == rt.Version {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
