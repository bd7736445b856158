package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zombor/splitzy/internal/bill"
	"github.com/zombor/splitzy/internal/scanning"
	"github.com/zombor/splitzy/pkg/logging"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// shutdownTimeout bounds how long in-flight scans may finish after a signal
const shutdownTimeout = 30 * time.Second

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run wires the service and serves until ctx is cancelled or the server fails.
// Every resource it opens is closed before it returns.
func run(ctx context.Context, args []string) error {
	fs := ff.NewFlagSet("splitzy")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		scannerType = fs.StringLong("scanner", "gemini", "Scanner type: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, qwen2-vl, bakllava)")
		cachePath   = fs.StringLong("cache", "", "Extraction cache file path (empty disables caching)")
		cacheTTL    = fs.DurationLong("cache-ttl", 30*24*time.Hour, "How long cached extractions stay valid (0 keeps them forever)")
		currency    = fs.StringLong("currency", "₹", "Currency symbol used in settlement instructions")
		maxUploadMB = fs.IntLong("max-upload-mb", 10, "Maximum bill photo size in megabytes")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("SPLITZY"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		return nil
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(level)

	// Initialize extractor based on type
	var (
		extractor scanning.Extractor
		model     string
	)
	switch *scannerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			return fmt.Errorf("initializing gemini: %w", err)
		}
		model = "gemini/" + *geminiModel
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			return fmt.Errorf("initializing ollama: %w", err)
		}
		model = "ollama/" + *ollamaModel
	default:
		return fmt.Errorf("invalid scanner type %q: want gemini or ollama", *scannerType)
	}
	defer extractor.Close()

	// Initialize cache
	var cache bill.Cache
	if *cachePath != "" {
		slog.Info("Initializing extraction cache...", "path", *cachePath, "ttl", *cacheTTL)
		boltCache, err := bill.NewBoltCache(*cachePath, *cacheTTL)
		if err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
		defer boltCache.Close()

		removed, err := boltCache.Prune()
		if err != nil {
			slog.Warn("Failed to prune cache", "error", err)
		} else if removed > 0 {
			slog.Info("Pruned stale extractions", "removed", removed)
		}
		cache = boltCache
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bill.NewMetrics(registry)

	// Initialize service
	billService := bill.NewService(extractor, cache, metrics, bill.Config{
		Model:    model,
		Currency: *currency,
	})

	// Initialize server
	server := bill.NewServer(billService, bill.ServerOptions{
		BasicAuth: bill.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		},
		MaxUploadBytes: int64(*maxUploadMB) << 20,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for a signal or a server failure
	select {
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
