package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/felixgeelhaar/codecraft/internal/piston"
	"github.com/felixgeelhaar/codecraft/internal/sandbox"
	"github.com/spf13/cobra"
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Manage a self-hosted Piston container",
	Long: `Run the Piston execution service locally in Docker.

Available subcommands:
  up      - Create and start the container, then install configured runtimes
  down    - Stop and remove the container
  status  - Show the container state and installed runtimes
  install - Install runtimes for the given languages

Point the daemon at it with piston.base_url (or CODECRAFT_PISTON_URL).`,
}

var sandboxUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create and start the Piston container",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newSandboxManager()
		if err != nil {
			return err
		}
		defer m.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Starting %s (first start pulls the image and installs runtimes)...\n", m.Config().Name)
		info, err := m.Up(cmd.Context())
		if err != nil {
			return err
		}
		printSandbox(cmd.OutOrStdout(), info)
		return nil
	},
}

var sandboxDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the Piston container",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newSandboxManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Down(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Sandbox removed")
		return nil
	},
}

var sandboxStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the Piston container state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newSandboxManager()
		if err != nil {
			return err
		}
		defer m.Close()

		info, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		printSandbox(cmd.OutOrStdout(), info)
		return nil
	},
}

var sandboxInstallCmd = &cobra.Command{
	Use:   "install <language>...",
	Short: "Install runtimes for languages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newSandboxManager()
		if err != nil {
			return err
		}
		defer m.Close()

		added, err := m.Install(cmd.Context(), args...)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "All runtimes already installed")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Installed %s\n", strings.Join(added, ", "))
		return nil
	},
}

func init() {
	sandboxCmd.AddCommand(sandboxUpCmd, sandboxDownCmd, sandboxStatusCmd, sandboxInstallCmd)
}

func newSandboxManager() (*sandbox.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, err := sandbox.NewDockerBackend()
	if err != nil {
		return nil, err
	}

	sbCfg := sandboxConfig(cfg)
	// Package installs take minutes; the daemon's execute timeout is too short
	packages := piston.NewClient(piston.Config{BaseURL: sbCfg.URL(), Timeout: 10 * time.Minute})

	return sandbox.NewManager(sbCfg, backend, packages), nil
}

func sandboxConfig(cfg *config.LocalConfig) sandbox.Config {
	return sandbox.Config{
		Image:    cfg.Sandbox.Image,
		Name:     cfg.Sandbox.Name,
		Port:     cfg.Sandbox.Port,
		Runtimes: cfg.Sandbox.Runtimes,
	}
}

func printSandbox(out io.Writer, info *sandbox.Info) {
	fmt.Fprintf(out, "Name:      %s\n", info.Name)
	fmt.Fprintf(out, "Status:    %s\n", info.Status)
	fmt.Fprintf(out, "Image:     %s\n", info.Image)
	if info.ContainerID != "" {
		fmt.Fprintf(out, "Container: %.12s\n", info.ContainerID)
	}
	fmt.Fprintf(out, "URL:       %s\n", info.URL)
	if len(info.Runtimes) > 0 {
		fmt.Fprintf(out, "Runtimes:  %s\n", strings.Join(info.Runtimes, ", "))
	}
}
