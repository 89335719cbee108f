// Package main is the entry point for the bplog blood pressure log.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/config"
	"github.com/jwulff/bplog-go/internal/logging"
	"github.com/jwulff/bplog-go/internal/observability"
	"github.com/jwulff/bplog-go/internal/storage/backend"
	"github.com/jwulff/bplog-go/internal/tracker"
)

const version = "0.1.0-dev"

// colorProfile picks plain text unless stdout is a terminal. NO_COLOR and
// CLICOLOR_FORCE are honored.
func colorProfile() termenv.Profile {
	if !logging.IsTerminal(os.Stdout) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		return
	}
	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		showUsage()
		return
	}

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Options{
		Level:   consoleLevel(command, cfg.LogLevel),
		File:    cfg.LogFile,
		Console: os.Stderr,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		fmt.Printf("Error opening %s storage: %v\n", cfg.StorageDriver, err)
		os.Exit(1)
	}

	loc, _ := cfg.Location()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	a := &app{
		tracker: tracker.New(store,
			tracker.WithLocation(loc),
			tracker.WithLogger(logger),
			tracker.WithMetrics(metrics),
		),
		out:      os.Stdout,
		profile:  colorProfile(),
		cfg:      cfg,
		logger:   logger,
		registry: registry,
	}

	code := a.run(ctx, command, os.Args[2:])

	if cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(cfg.MetricsFile, registry); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}
	if err := store.Close(); err != nil {
		logger.Warn("failed to close storage", zap.Error(err))
	}
	if code != 0 {
		_ = logger.Sync()
		os.Exit(code)
	}
}

// consoleLevel keeps routine info logs off the terminal for one-shot
// commands; the server logs at the configured level.
func consoleLevel(command, level string) string {
	if command == "serve" {
		return level
	}
	switch strings.ToLower(level) {
	case "", "info":
		return "warn"
	}
	return level
}

func showUsage() {
	fmt.Println("bplog - Blood Pressure Log")
	fmt.Printf("Version: %s\n", version)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bplog add <sys> <dia> [-pulse N] [-notes TEXT] [-category NAME] [-at TIME]")
	fmt.Println("                                 - Record a reading (TIME is \"YYYY-MM-DD HH:MM\")")
	fmt.Println("  bplog edit <id> <sys> <dia> [flags as for add]")
	fmt.Println("                                 - Replace a reading, keeping its time unless -at is given")
	fmt.Println("  bplog list [range] [-limit N]  - Show readings, newest first")
	fmt.Println("  bplog trends [range]           - Show averages and a daily chart")
	fmt.Println("  bplog delete <id>              - Delete one reading")
	fmt.Println("  bplog clear -yes               - Delete all readings")
	fmt.Println("  bplog export [file|-]          - Export readings as CSV")
	fmt.Println("  bplog import <file>            - Import readings from CSV")
	fmt.Println("  bplog settings [key value]     - Show or change settings")
	fmt.Println("  bplog settings reset           - Restore default settings")
	fmt.Println("  bplog serve                    - Run the HTTP API")
	fmt.Println()
	fmt.Println("Ranges: today, week, month, 3months, year, all (default: week)")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BPLOG_STORAGE_DRIVER  - memory, sqlite, postgres or redis (default: sqlite)")
	fmt.Println("  BPLOG_SQLITE_PATH     - SQLite database file (default: bplog.db)")
	fmt.Println("  BPLOG_POSTGRES_URL    - Postgres connection URL")
	fmt.Println("  BPLOG_REDIS_ADDR      - Redis address (default: localhost:6379)")
	fmt.Println("  BPLOG_HTTP_ADDRESS    - Listen address for serve (default: :8080)")
	fmt.Println("  BPLOG_TIMEZONE        - Zone for calendar days (default: Local)")
	fmt.Println("  BPLOG_LOG_LEVEL       - debug, info, warn, error (default: info)")
	fmt.Println("  BPLOG_LOG_FILE        - Rotating JSON log file (optional)")
	fmt.Println("  BPLOG_METRICS_FILE    - Prometheus textfile written after each run (optional)")
}
