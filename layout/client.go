package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is where a locally run layout analysis server listens.
	DefaultBaseURL = "http://localhost:8070"

	// DefaultTimeout bounds a single document analysis request. Large PDFs
	// with many figures can take well over a minute.
	DefaultTimeout = 120 * time.Second

	probeTimeout = 5 * time.Second
)

// ErrUnavailable is returned when the layout analysis server cannot be
// reached. Callers treat it as a signal to fall back to page-level parsing.
var ErrUnavailable = errors.New("layout: analysis server unavailable")

// Client talks to a GROBID-compatible layout analysis server over HTTP.
// The zero value is not usable; construct with NewClient.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger

	// probeOnce guards the liveness probe so batch runs only hit
	// /api/isalive once per client, even with concurrent workers.
	probeOnce sync.Once
	alive     bool
}

// NewClient returns a client for the server at baseURL. A zero timeout
// selects DefaultTimeout; a nil logger selects slog.Default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// IsAlive reports whether the server responds to its liveness endpoint.
// The result is cached for the lifetime of the client.
func (c *Client) IsAlive(ctx context.Context) bool {
	c.probeOnce.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, "GET", c.baseURL+"/api/isalive", nil)
		if err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("layout server not reachable", "url", c.baseURL, "error", err)
			return
		}
		resp.Body.Close()
		c.alive = resp.StatusCode == http.StatusOK
	})
	return c.alive
}

// ProcessFulltext uploads the PDF at path and returns the server's TEI-XML
// document analysis. Figure coordinates are requested so downstream image
// extraction can locate graphics on the page.
func (c *Client) ProcessFulltext(ctx context.Context, path string) ([]byte, error) {
	if !c.IsAlive(ctx) {
		return nil, ErrUnavailable
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("layout: opening %s: %w", path, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := createPDFPart(writer, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("layout: building request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("layout: reading %s: %w", path, err)
	}

	fields := map[string]string{
		"consolidateHeader":      "1",
		"consolidateCitations":   "0",
		"includeRawCitations":    "0",
		"includeRawAffiliations": "0",
		"teiCoordinates":         "figure",
		"segmentSentences":       "0",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("layout: building request: %w", err)
		}
	}
	writer.Close()

	url := c.baseURL + "/api/processFulltextDocument"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("layout: building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("layout: processing %s: %w", filepath.Base(path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("layout: server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	tei, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("layout: reading response: %w", err)
	}

	c.logger.Debug("layout analysis complete",
		"file", filepath.Base(path),
		"bytes", len(tei),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return tei, nil
}

// createPDFPart creates the multipart file part with an explicit PDF
// content type, which some servers require for format detection.
func createPDFPart(w *multipart.Writer, filename string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="input"; filename="%s"`, filename))
	h.Set("Content-Type", "application/pdf")
	return w.CreatePart(h)
}
