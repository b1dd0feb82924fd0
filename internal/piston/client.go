package piston

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Piston instance
const DefaultBaseURL = "https://emkc.org/api/v2/piston"

// Executor submits a single program for execution
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// Client talks to a Piston execution service
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Config holds configuration for the Piston client
type Config struct {
	BaseURL    string        // default: https://emkc.org/api/v2/piston
	Timeout    time.Duration // zero means no client-side deadline
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient creates a new Piston client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newPistonHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Execute runs req.Source on the runtime mapped from req.Language.
// Unmapped languages fail before any network call.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	rt, ok := RuntimeFor(req.Language)
	if !ok {
		return nil, &UnsupportedLanguageError{Language: req.Language}
	}

	args := req.Args
	if args == nil {
		args = []string{}
	}

	payload := executeRequest{
		Language: rt.ID,
		Version:  rt.Version,
		Files:    []File{{Name: rt.FileName(), Content: req.Source}},
		Stdin:    req.Stdin,
		Args:     args,
	}

	c.logger.Debug("piston execute",
		"language", rt.ID,
		"version", rt.Version,
		"bytes", len(req.Source))

	var resp Response
	if err := c.do(ctx, http.MethodPost, "/execute", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to execute code: %w", err)
	}

	return &resp, nil
}

// Runtimes lists the runtimes installed on the service
func (c *Client) Runtimes(ctx context.Context) ([]InstalledRuntime, error) {
	var out []InstalledRuntime
	if err := c.do(ctx, http.MethodGet, "/runtimes", nil, &out); err != nil {
		return nil, fmt.Errorf("list runtimes: %w", err)
	}
	return out, nil
}

// InstallPackage installs the runtime for a language on a self-hosted service
func (c *Client) InstallPackage(ctx context.Context, language string) error {
	rt, ok := RuntimeFor(language)
	if !ok {
		return &UnsupportedLanguageError{Language: language}
	}

	payload := packageRequest{Language: rt.ID, Version: rt.Version}
	if err := c.do(ctx, http.MethodPost, "/packages", payload, nil); err != nil {
		return fmt.Errorf("install %s %s: %w", rt.ID, rt.Version, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Warn("piston error response",
			"path", path,
			"status", resp.StatusCode)
		return &TransportError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
