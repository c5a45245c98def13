package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/formintake/formintake/internal/api"
	"github.com/formintake/formintake/internal/config"
	"github.com/formintake/formintake/internal/fields"
	"github.com/formintake/formintake/internal/intake"
	"github.com/formintake/formintake/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// runner is the lifecycle every serving mode exposes
type runner interface {
	Run(ctx context.Context) error
}

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	if cfg.IsStdioMode() {
		// In stdio mode, redirect log output to stderr to avoid interfering with MCP protocol
		log.SetOutput(os.Stderr)
		// Reduce log verbosity in stdio mode unless debug is enabled
		if !cfg.IsDebug() {
			log.SetOutput(os.NewFile(0, os.DevNull))
		}
	} else {
		// In http and watch modes, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// buildService wires the intake service from configuration, loading a
// custom dictionary when one is configured
func buildService(cfg *config.Config) (*intake.Service, error) {
	opts := intake.Options{
		MaxFileSize:     cfg.MaxFileSize,
		IntakeDir:       cfg.IntakeDirectory,
		CacheTTL:        cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanup,
	}

	if cfg.DictionaryPath != "" {
		dict, err := fields.LoadDictionary(cfg.DictionaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load dictionary %s: %w", cfg.DictionaryPath, err)
		}
		opts.Dictionary = dict
	}

	return intake.NewService(opts)
}

// runForeground handles http and watch mode execution with signal handling
func runForeground(ctx context.Context, cancel context.CancelFunc, r runner) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- r.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// In stdio mode, the parent process controls our lifecycle
	// We should exit cleanly when stdin is closed or we get an error

	// Start server and wait for it to complete
	if err := server.Run(ctx); err != nil {
		// Only log to stderr in debug mode to avoid protocol interference
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && !cfg.IsStdioMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Create intake service
	service, err := buildService(cfg)
	if err != nil {
		log.Fatalf("Failed to create intake service: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	switch {
	case cfg.IsHTTPMode():
		server, err := api.NewServer(service, cfg, log.Default())
		if err != nil {
			log.Fatalf("Failed to create HTTP server: %v", err)
		}
		runForeground(ctx, cancel, server)

	case cfg.IsWatchMode():
		watcher, err := intake.NewWatcher(service, cfg.WatchDirectory, log.Default())
		if err != nil {
			log.Fatalf("Failed to create watcher: %v", err)
		}
		runForeground(ctx, cancel, watcher)

	default:
		server, err := mcp.NewServer(cfg, service)
		if err != nil {
			log.Fatalf("Failed to create MCP server: %v", err)
		}
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Form Intake Server\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
