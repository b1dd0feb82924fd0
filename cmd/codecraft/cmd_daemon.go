package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/felixgeelhaar/codecraft/internal/config"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the CodeCraft daemon in the background",
	Args:  cobra.NoArgs,
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the CodeCraft daemon",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent daemon logs",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

func runStart(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if client.healthy(cmd.Context()) {
		fmt.Fprintln(out, "✓ Daemon is already running")
		return nil
	}

	dir, err := config.EnsureCodecraftDir()
	if err != nil {
		return fmt.Errorf("setup codecraft directory: %w", err)
	}

	daemonPath, err := findDaemonBinary()
	if err != nil {
		return fmt.Errorf("find daemon binary: %w", err)
	}

	proc := exec.Command(daemonPath)
	proc.Dir = dir
	configureDaemonProcess(proc)

	if err := proc.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	fmt.Fprint(out, "Starting daemon...")
	for i := 0; i < 30; i++ {
		time.Sleep(100 * time.Millisecond)
		if client.healthy(cmd.Context()) {
			fmt.Fprintln(out, " ✓")
			fmt.Fprintf(out, "Daemon running at %s\n", client.baseURL)
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon failed to start (check logs with 'codecraft logs')")
}

func runStop(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !client.healthy(cmd.Context()) {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	dir, err := config.CodecraftDir()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("parse PID: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}

	fmt.Fprint(out, "Stopping daemon...")
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("send signal: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !client.healthy(cmd.Context()) {
			fmt.Fprintln(out, " ✓")
			return nil
		}
		fmt.Fprint(out, ".")
	}

	fmt.Fprintln(out, " ✗")
	return fmt.Errorf("daemon did not stop gracefully")
}

// daemonStatus is the body of GET /v1/status
type daemonStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Piston  string `json:"piston"`
	Queue   bool   `json:"queue"`
	Content struct {
		Courses   int `json:"courses"`
		Lessons   int `json:"lessons"`
		Tests     int `json:"tests"`
		Questions int `json:"questions"`
	} `json:"content"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := daemon()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	if !client.healthy(ctx) {
		fmt.Fprintln(out, "Status: stopped")
		return nil
	}

	var status daemonStatus
	if err := client.get(ctx, "/v1/status", &status); err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	printStatus(out, client.baseURL, &status)
	return nil
}

func printStatus(out io.Writer, addr string, status *daemonStatus) {
	queue := "disabled"
	if status.Queue {
		queue = "publishing results"
	}

	fmt.Fprintf(out, "Status:    %s\n", status.Status)
	fmt.Fprintf(out, "Version:   %s\n", status.Version)
	fmt.Fprintf(out, "Uptime:    %s\n", status.Uptime)
	fmt.Fprintf(out, "Piston:    %s\n", status.Piston)
	fmt.Fprintf(out, "Queue:     %s\n", queue)
	fmt.Fprintf(out, "Content:   %d courses, %d lessons, %d tests, %d questions\n",
		status.Content.Courses, status.Content.Lessons, status.Content.Tests, status.Content.Questions)
	fmt.Fprintf(out, "Address:   %s\n", addr)
}

func runLogs(cmd *cobra.Command, args []string) error {
	dir, err := config.CodecraftDir()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	logPath := filepath.Join(dir, "logs", "codecraftd.log")
	file, err := os.Open(logPath)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "No log file found. Start the daemon first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	return tail(out, file, 4096)
}

// tail prints the complete lines within the last n bytes of f
func tail(out io.Writer, f *os.File, n int64) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}

	offset := info.Size() - n
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(f)
	if offset > 0 {
		// Skip the partial first line
		_, _ = reader.ReadString('\n')
	}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		fmt.Fprintln(out, scanner.Text())
	}
	return scanner.Err()
}

// findDaemonBinary locates the codecraftd binary
func findDaemonBinary() (string, error) {
	if path, err := exec.LookPath("codecraftd"); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(self), "codecraftd")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	for _, path := range []string{"/usr/local/bin/codecraftd", "./codecraftd"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("codecraftd binary not found (build with 'go build ./cmd/codecraftd')")
}
