package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/akoval/checkwatch/internal/collect"
	"github.com/akoval/checkwatch/internal/dashboard"
	"github.com/akoval/checkwatch/internal/history"
	"github.com/akoval/checkwatch/internal/insight"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("checkwatch")
	var (
		url           = fs.StringLong("url", "", "Receipt page URL to monitor (required)")
		port          = fs.IntLong("port", 8080, "HTTP server port")
		storeType     = fs.StringLong("store", "file", "History store: 'file' or 'bolt'")
		dbPath        = fs.StringLong("db", "sales_history.json", "History file path (or .db path for the bolt store)")
		interval      = fs.DurationLong("interval", 10*time.Second, "Delay between successful poll cycles")
		errorInterval = fs.DurationLong("error-interval", 60*time.Second, "Delay after a failed poll cycle")
		maxFailures   = fs.IntLong("max-failures", 5, "Consecutive failures before the error delay doubles")
		fetchTimeout  = fs.DurationLong("fetch-timeout", 10*time.Second, "HTTP timeout for page fetches")
		commenterType = fs.StringLong("commenter", "off", "AI commentary backend: 'off', 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llama3", "Ollama model name")
		commentaryTTL = fs.DurationLong("commentary-ttl", time.Hour, "How long generated commentary is cached")
		authUser      = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass      = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("CHECKWATCH"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *url == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: --url is required\n")
		os.Exit(1)
	}

	// Initialize history store
	slog.Info("Initializing history store...", "type", *storeType, "path", *dbPath)
	var store history.Store
	var err error
	switch *storeType {
	case "file":
		store, err = history.NewFileStore(*dbPath)
	case "bolt":
		store, err = history.NewBoltStore(*dbPath)
	default:
		slog.Error("Invalid store type", "type", *storeType, "valid", "file or bolt")
		os.Exit(1)
	}
	if err != nil {
		slog.Error("Failed to initialize history store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize commentary backend if requested
	var commenter insight.Commenter
	switch *commenterType {
	case "off":
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini commentary...", "model", *geminiModel)
		commenter, err = insight.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama commentary...", "url", *ollamaURL, "model", *ollamaModel)
		commenter, err = insight.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid commenter type", "type", *commenterType, "valid", "off, gemini or ollama")
		os.Exit(1)
	}
	if commenter != nil {
		commenter = insight.NewCached(commenter, *commentaryTTL)
		defer commenter.Close()
	}

	// Start the collector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := collect.NewCollector(collect.Config{
		URL:           *url,
		Interval:      *interval,
		ErrorInterval: *errorInterval,
		MaxFailures:   *maxFailures,
	}, collect.NewHTTPFetcher(*url, *fetchTimeout), store)

	go collector.Run(ctx)

	// Initialize server
	basicAuth := dashboard.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := dashboard.NewServer(store, commenter, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	cancel()
}
