package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/tabsplit/tabsplit/internal/receipt"
	"github.com/tabsplit/tabsplit/internal/scanning"
	"github.com/tabsplit/tabsplit/pkg/logging"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("tabsplit")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "tabsplit.db", "Database file path")
		redisURL    = fs.StringLong("redis-url", "", "Redis URL for remote replication (optional)")
		scannerType = fs.StringLong("scanner", "", "Receipt scanner: 'gemini', 'ollama', or empty to disable")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		sweepAge    = fs.DurationLong("sweep-age", 0, "Delete receipts older than this age at startup (0 disables)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("TABSPLIT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	logging.Setup()

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var replicator receipt.Replicator = receipt.NoopReplicator{}
	if *redisURL != "" {
		slog.Info("Connecting to replication store...", "url", *redisURL)
		redisReplicator, err := receipt.NewRedisReplicator(*redisURL)
		if err != nil {
			// Connectivity warning only; core logic runs on the local copy.
			slog.Warn("Replication store unreachable, continuing local-only", "error", err)
		} else {
			replicator = redisReplicator
			defer redisReplicator.Close()
		}
	}

	var scanner scanning.Scanner
	switch *scannerType {
	case "":
		// Scanning disabled; items are entered by hand.
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
		defer scanner.Close()
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
		defer scanner.Close()
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini, ollama, or empty")
		os.Exit(1)
	}

	service := receipt.NewService(db, replicator, scanner)

	if *sweepAge > 0 {
		removed, err := service.SweepOlderThan(*sweepAge)
		if err != nil {
			slog.Warn("Receipt sweep failed", "error", err)
		} else if removed > 0 {
			slog.Info("Swept old receipts", "removed", removed, "older_than", *sweepAge)
		}
	}

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
