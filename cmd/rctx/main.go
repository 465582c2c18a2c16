// Command rctx extracts structured systematic-review data from randomized
// controlled trial PDFs.
//
// Single manuscript:
//
//	rctx extract --pdf ./trials/nct01234567.pdf --out result.json
//
// Batch over a directory, with tabular exports:
//
//	rctx extract --dir ./trials \
//	  --json results.json --csv results.csv --xlsx results.xlsx \
//	  --workers 4
//
// Risk-of-bias assessment only:
//
//	rctx assess --pdf ./trials/nct01234567.pdf --rob-url http://localhost:8001
//
// Check the layout analysis service:
//
//	rctx layout --layout-url http://localhost:8070
//
// Every flag can also be set through an RCTX_-prefixed environment
// variable (RCTX_CHAT_MODEL, RCTX_LAYOUT_URL, ...) or a config file
// passed with --config.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/medevidence/rctx"
	"github.com/medevidence/rctx/layout"
	"github.com/medevidence/rctx/pipeline"
	"github.com/medevidence/rctx/rob"
)

const usage = `Usage: rctx <command> [flags]

Commands:
  extract   Extract structured data from one PDF (--pdf) or a directory (--dir)
  assess    Run risk-of-bias assessment on one PDF (requires --rob-url)
  info      Print the effective configuration
  layout    Check the layout analysis service

Run "rctx <command> --help" for command flags.
`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	defineFlags(command)
	if err := pflag.CommandLine.Parse(os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "rctx:", err)
		os.Exit(2)
	}
	if err := run(command); err != nil {
		fmt.Fprintln(os.Stderr, "rctx:", err)
		os.Exit(1)
	}
}

func run(command string) error {
	if err := loadViper(); err != nil {
		return err
	}
	setupLogging(viper.GetString("log-level"))

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case "extract":
		return runExtract(ctx, cfg)
	case "assess":
		return runAssess(ctx, cfg)
	case "info":
		return runInfo(cfg)
	case "layout":
		return runLayout(ctx, cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func defineFlags(command string) {
	pflag.String("config", "", "Path to config file (JSON or YAML)")
	pflag.String("log-level", "info", "Log level: debug, info, warn, error")

	pflag.String("chat-provider", "", "Chat LLM provider: ollama, openai, gemini, custom")
	pflag.String("chat-model", "", "Chat model")
	pflag.String("chat-base-url", "", "Chat endpoint base URL")
	pflag.String("chat-api-key", "", "Chat API key (default: OPENAI_API_KEY)")
	pflag.String("embed-provider", "", "Embedding provider")
	pflag.String("embed-model", "", "Embedding model")
	pflag.String("embed-base-url", "", "Embedding endpoint base URL")
	pflag.String("embed-api-key", "", "Embedding API key (default: OPENAI_API_KEY)")
	pflag.Float64("temperature", 0, "Sampling temperature")
	pflag.Int("max-tokens", 0, "Response token cap")

	pflag.String("layout-url", "", "Layout analysis server URL")
	pflag.Bool("no-layout", false, "Skip layout analysis, use page-text fallback")
	pflag.Bool("no-figures", false, "Skip figure image extraction")
	pflag.Int("top-k", 0, "Evidence units retrieved per probe")
	pflag.Int("chunk-size", 0, "Chunk size in characters")
	pflag.Int("chunk-overlap", 0, "Chunk overlap in characters")

	pflag.String("rob-url", "", "Risk-of-bias service URL (enables assessment)")
	pflag.String("rob-model", "", "Risk-of-bias model")

	switch command {
	case "extract":
		pflag.String("pdf", "", "Extract a single manuscript")
		pflag.String("dir", "", "Batch-extract every PDF in a directory")
		pflag.String("out", "", "Single-file output path (default: stdout)")
		pflag.String("json", "", "Batch JSON output path")
		pflag.String("csv", "", "Batch CSV output path")
		pflag.String("xlsx", "", "Batch XLSX output path")
		pflag.String("intermediate-dir", "", "Directory for per-file results as the batch runs")
		pflag.Int("workers", 1, "Concurrent manuscripts in batch mode")
		pflag.Int("limit", 0, "Process at most this many files (0 = all)")
	case "assess":
		pflag.String("pdf", "", "Manuscript to assess")
	}
}

func loadViper() error {
	viper.SetEnvPrefix("RCTX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
}

func buildConfig() (rctx.Config, error) {
	cfg := rctx.DefaultConfig()

	setString(&cfg.Chat.Provider, "chat-provider")
	setString(&cfg.Chat.Model, "chat-model")
	setString(&cfg.Chat.BaseURL, "chat-base-url")
	setString(&cfg.Chat.APIKey, "chat-api-key")
	setString(&cfg.Embedding.Provider, "embed-provider")
	setString(&cfg.Embedding.Model, "embed-model")
	setString(&cfg.Embedding.BaseURL, "embed-base-url")
	setString(&cfg.Embedding.APIKey, "embed-api-key")
	if v := viper.GetFloat64("temperature"); v != 0 {
		cfg.Temperature = v
	}
	setInt(&cfg.MaxTokens, "max-tokens")
	setInt(&cfg.TopK, "top-k")
	setInt(&cfg.ChunkSize, "chunk-size")
	setInt(&cfg.ChunkOverlap, "chunk-overlap")
	setString(&cfg.LayoutURL, "layout-url")
	if viper.GetBool("no-layout") {
		cfg.UseLayout = false
	}
	if viper.GetBool("no-figures") {
		cfg.ExtractFigures = false
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Chat.APIKey == "" {
			cfg.Chat.APIKey = key
		}
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = key
		}
	}

	if url := viper.GetString("rob-url"); url != "" {
		robCfg := rob.ClientConfig{BaseURL: url}
		if model := viper.GetString("rob-model"); model != "" {
			robCfg.Model = model
		}
		cfg.RoB = &robCfg
	}
	return cfg, nil
}

func setString(dst *string, key string) {
	if v := viper.GetString(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := viper.GetInt(key); v != 0 {
		*dst = v
	}
}

func runExtract(ctx context.Context, cfg rctx.Config) error {
	extractor, err := rctx.New(cfg)
	if err != nil {
		return err
	}

	pdf := viper.GetString("pdf")
	dir := viper.GetString("dir")
	switch {
	case pdf != "" && dir != "":
		return fmt.Errorf("--pdf and --dir are mutually exclusive")
	case pdf != "":
		return extractSingle(ctx, extractor, pdf)
	case dir != "":
		return extractBatch(ctx, extractor, dir)
	default:
		return fmt.Errorf("one of --pdf or --dir is required")
	}
}

func extractSingle(ctx context.Context, extractor *rctx.Extractor, path string) error {
	runner := pipeline.New(extractor, pipeline.Config{
		AssessRoB: extractor.HasAssessor(),
	}, slog.Default())

	res := runner.Process(ctx, path)
	if res.Status == pipeline.StatusFailure {
		return fmt.Errorf("extracting %s: %s", path, res.Error)
	}

	data, err := json.MarshalIndent(res.Result, "", "  ")
	if err != nil {
		return err
	}
	if out := viper.GetString("out"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Println(string(data))
	return nil
}

func extractBatch(ctx context.Context, extractor *rctx.Extractor, dir string) error {
	runner := pipeline.New(extractor, pipeline.Config{
		Workers:   viper.GetInt("workers"),
		Limit:     viper.GetInt("limit"),
		AssessRoB: extractor.HasAssessor(),
		OutputDir: viper.GetString("intermediate-dir"),
	}, slog.Default())

	results, err := runner.Run(ctx, dir)
	if err != nil {
		return err
	}

	wrote := false
	if path := viper.GetString("json"); path != "" {
		if err := pipeline.WriteJSON(path, results); err != nil {
			return err
		}
		slog.Info("wrote JSON export", "path", path)
		wrote = true
	}
	if path := viper.GetString("csv"); path != "" {
		if err := pipeline.WriteCSV(path, results); err != nil {
			return err
		}
		slog.Info("wrote CSV export", "path", path)
		wrote = true
	}
	if path := viper.GetString("xlsx"); path != "" {
		if err := pipeline.WriteXLSX(path, results); err != nil {
			return err
		}
		slog.Info("wrote XLSX export", "path", path)
		wrote = true
	}
	if !wrote {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	}
	return nil
}

func runAssess(ctx context.Context, cfg rctx.Config) error {
	pdf := viper.GetString("pdf")
	if pdf == "" {
		return fmt.Errorf("--pdf is required")
	}
	if cfg.RoB == nil {
		return fmt.Errorf("--rob-url is required for assessment")
	}

	extractor, err := rctx.New(cfg)
	if err != nil {
		return err
	}
	assessment, err := extractor.Assess(ctx, pdf)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runInfo(cfg rctx.Config) error {
	// API keys stay out of the report.
	cfg.Chat.APIKey = redact(cfg.Chat.APIKey)
	cfg.Embedding.APIKey = redact(cfg.Embedding.APIKey)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "(set)"
}

func runLayout(ctx context.Context, cfg rctx.Config) error {
	client := layout.NewClient(cfg.LayoutURL, cfg.LayoutTimeout, slog.Default())
	if !client.IsAlive(ctx) {
		fmt.Printf("layout service at %s: unavailable\n", cfg.LayoutURL)
		fmt.Println("start one with: docker run --rm -p 8070:8070 lfoppiano/grobid:0.8.0")
		return fmt.Errorf("layout service unavailable")
	}
	fmt.Printf("layout service at %s: alive\n", cfg.LayoutURL)
	return nil
}
