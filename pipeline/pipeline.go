// Package pipeline runs batch extraction over a directory of manuscripts
// and exports the aggregated results as JSON, CSV, and XLSX.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/medevidence/rctx"
	"github.com/medevidence/rctx/rob"
)

// Status classifies the outcome of one file.
type Status string

const (
	// StatusSuccess means extraction (and assessment, if enabled)
	// completed without error.
	StatusSuccess Status = "success"
	// StatusPartial means extraction produced a result but a later step
	// failed, typically the risk-of-bias assessment or the model
	// returning malformed JSON.
	StatusPartial Status = "partial"
	// StatusFailure means no result could be produced for the file.
	StatusFailure Status = "failure"
)

// FileResult is the outcome of processing one manuscript.
type FileResult struct {
	File   string      `json:"file"`
	Status Status      `json:"status"`
	Error  string      `json:"error,omitempty"`
	Result rctx.Result `json:"result,omitempty"`
}

// Config controls a batch run.
type Config struct {
	// Workers is the number of files processed concurrently. Values
	// below 1 mean sequential.
	Workers int `json:"workers" yaml:"workers"`
	// Limit caps how many files are processed; 0 means all.
	Limit int `json:"limit" yaml:"limit"`
	// AssessRoB runs the risk-of-bias assessment per file and merges the
	// domain judgments into the extraction result.
	AssessRoB bool `json:"assess_rob" yaml:"assess_rob"`
	// OutputDir, when set, receives one intermediate JSON file per
	// manuscript as it completes, so a crashed run loses nothing.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Extractor is the engine surface the runner drives. *rctx.Extractor
// implements it.
type Extractor interface {
	Extract(ctx context.Context, path string) (rctx.Result, error)
	Assess(ctx context.Context, path string) (*rob.Assessment, error)
	HasAssessor() bool
}

// Runner drives batch extraction with a shared Extractor.
type Runner struct {
	ex     Extractor
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex // guards intermediate file writes
}

// New creates a Runner.
func New(ex Extractor, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Runner{ex: ex, cfg: cfg, logger: logger}
}

// Run processes every PDF in dir and returns one FileResult per file,
// sorted by filename. A failing file never aborts the batch.
func (r *Runner) Run(ctx context.Context, dir string) ([]FileResult, error) {
	paths, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("pipeline: no PDF files in %s", dir)
	}
	if r.cfg.Limit > 0 && len(paths) > r.cfg.Limit {
		paths = paths[:r.cfg.Limit]
	}
	r.logger.Info("starting batch", "dir", dir, "files", len(paths), "workers", r.cfg.Workers)

	results := make([]FileResult, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.Process(ctx, paths[i])
			}
		}()
	}
	for i := range paths {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	counts := map[Status]int{}
	for _, res := range results {
		counts[res.Status]++
	}
	r.logger.Info("batch complete",
		"success", counts[StatusSuccess],
		"partial", counts[StatusPartial],
		"failure", counts[StatusFailure])
	return results, nil
}

// Process runs one manuscript end to end and never returns an error: all
// failure modes are folded into the FileResult.
func (r *Runner) Process(ctx context.Context, path string) FileResult {
	name := filepath.Base(path)
	res := FileResult{File: name, Status: StatusSuccess}

	result, err := r.ex.Extract(ctx, path)
	if err != nil {
		r.logger.Error("extraction failed", "file", name, "error", err)
		res.Status = StatusFailure
		res.Error = err.Error()
		return res
	}
	res.Result = result
	if msg := result.Err(); msg != "" {
		res.Status = StatusPartial
		res.Error = msg
	}

	if r.cfg.AssessRoB && r.ex.HasAssessor() {
		assessment, err := r.ex.Assess(ctx, path)
		if err != nil {
			r.logger.Error("risk of bias assessment failed", "file", name, "error", err)
			if res.Status == StatusSuccess {
				res.Status = StatusPartial
				res.Error = err.Error()
			}
		} else {
			for key, judgment := range assessment.Summary() {
				result[key] = judgment
			}
		}
	}

	if r.cfg.OutputDir != "" {
		if err := r.saveIntermediate(name, res); err != nil {
			r.logger.Warn("could not save intermediate result", "file", name, "error", err)
		}
	}
	return res
}

func (r *Runner) saveIntermediate(name string, res FileResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(name, filepath.Ext(name)) + ".json"
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.cfg.OutputDir, base), data, 0o644)
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
