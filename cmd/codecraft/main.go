package main

import (
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "codecraftd.pid"

var (
	daemonAddr string
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "codecraft",
	Short: "CodeCraft - interactive coding and Verilog lessons",
	Long: `CodeCraft grades solutions to programming and hardware-description lessons
by running them on a Piston execution service.

Most commands talk to the codecraft daemon (codecraftd). The sandbox commands
manage a self-hosted Piston container, and mcp serves lessons to MCP clients.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "codecraft %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&daemonAddr, "addr", "", "Daemon URL (default from config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, logsCmd)
	rootCmd.AddCommand(coursesCmd, lessonsCmd, showCmd, questionsCmd, languagesCmd)
	rootCmd.AddCommand(testCmd, execCmd, submitCmd)
	rootCmd.AddCommand(sandboxCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env and ~/.codecraft/config.yaml
func loadConfig() (*config.LocalConfig, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// daemon returns a client for the configured daemon
func daemon() (*daemonClient, error) {
	addr := daemonAddr
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.BaseURL()
	}
	return newDaemonClient(addr, timeout), nil
}
