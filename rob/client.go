package rob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultModel is the assessment model the service defaults to.
	DefaultModel = "gpt-4o"

	// DefaultTimeout bounds one assessment run. An assessment walks all
	// six domains with multiple signalling questions each, so it is far
	// slower than a single completion.
	DefaultTimeout = 10 * time.Minute
)

// ClientConfig configures the assessment service client.
type ClientConfig struct {
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Model       string        `json:"model" yaml:"model"`
	Temperature float64       `json:"temperature" yaml:"temperature"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
}

// Client submits manuscripts to a RoB assessment service over HTTP.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient returns a service client. BaseURL is required; zero-value
// fields get defaults.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rob: service URL not configured")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    ClientConfig{BaseURL: strings.TrimRight(cfg.BaseURL, "/"), Model: cfg.Model, Temperature: cfg.Temperature, Timeout: cfg.Timeout},
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Assess uploads the manuscript and returns the completed assessment.
func (c *Client) Assess(ctx context.Context, manuscriptPath string) (*Assessment, error) {
	file, err := os.Open(manuscriptPath)
	if err != nil {
		return nil, fmt.Errorf("rob: opening manuscript: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("manuscript", filepath.Base(manuscriptPath))
	if err != nil {
		return nil, fmt.Errorf("rob: building request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("rob: reading manuscript: %w", err)
	}
	writer.WriteField("model", c.cfg.Model)
	writer.WriteField("temperature", strconv.FormatFloat(c.cfg.Temperature, 'f', -1, 64))
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/assess", &body)
	if err != nil {
		return nil, fmt.Errorf("rob: building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rob: assessment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("rob: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var assessment Assessment
	if err := json.NewDecoder(resp.Body).Decode(&assessment); err != nil {
		return nil, fmt.Errorf("rob: decoding assessment: %w", err)
	}
	if assessment.Manuscript == "" {
		assessment.Manuscript = filepath.Base(manuscriptPath)
	}
	if assessment.Model == "" {
		assessment.Model = c.cfg.Model
	}
	if assessment.Overall == "" {
		if overall, ok := assessment.Domains[DomainOverall]; ok {
			assessment.Overall = overall.Judgment
		}
	}

	c.logger.Info("risk of bias assessment complete",
		"manuscript", assessment.Manuscript,
		"overall", assessment.Overall,
		"elapsed", time.Since(start).Round(time.Second))
	return &assessment, nil
}
