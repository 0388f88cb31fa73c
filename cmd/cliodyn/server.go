package cliodyn

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/cliodyn"
	"github.com/soundprediction/cliodyn/pkg/assist"
	"github.com/soundprediction/cliodyn/pkg/config"
	cliodynLogger "github.com/soundprediction/cliodyn/pkg/logger"
	"github.com/soundprediction/cliodyn/pkg/mirror"
	"github.com/soundprediction/cliodyn/pkg/server"
	"github.com/soundprediction/cliodyn/pkg/store"
	"github.com/soundprediction/cliodyn/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Cliodyn HTTP server",
	Long: `Start the Cliodyn HTTP server to provide REST API access to the
analytics engine.

The server provides endpoints for:
- The event ledger (create, range queries, distances, summaries)
- The pattern vocabulary (definitions, links, recurrence, detection)
- The simulation projector (indicators, matching, trajectories, risk, scenarios)
- Forecast record tracking and fulfillment rollups
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Store flags
	serverCmd.Flags().String("db-driver", "badger", "Ledger store driver (badger, memory)")
	serverCmd.Flags().String("db-path", "./cliodyn_db", "Ledger store path")

	// Mirror flags
	serverCmd.Flags().Bool("mirror", false, "Enable the Neo4j graph mirror")
	serverCmd.Flags().String("mirror-uri", "", "Neo4j URI for the graph mirror")

	// Assist flags
	serverCmd.Flags().Bool("assist", false, "Enable the LLM annotation assist")
	serverCmd.Flags().String("assist-model", "", "Assist model name")
	serverCmd.Flags().String("assist-base-url", "", "Assist base URL")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize the engine
	fmt.Println("Initializing Cliodyn...")
	engine, err := initializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Cliodyn: %w", err)
	}

	// Create and setup server
	srv := server.New(cfg, engine)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if err := engine.Close(shutdownCtx); err != nil {
			return fmt.Errorf("engine shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Store flags
	if cmd.Flags().Changed("db-driver") {
		cfg.Database.Driver, _ = cmd.Flags().GetString("db-driver")
	}
	if cmd.Flags().Changed("db-path") {
		cfg.Database.Path, _ = cmd.Flags().GetString("db-path")
	}

	// Mirror flags
	if cmd.Flags().Changed("mirror") {
		cfg.Mirror.Enabled, _ = cmd.Flags().GetBool("mirror")
	}
	if cmd.Flags().Changed("mirror-uri") {
		cfg.Mirror.URI, _ = cmd.Flags().GetString("mirror-uri")
	}

	// Assist flags
	if cmd.Flags().Changed("assist") {
		cfg.Assist.Enabled, _ = cmd.Flags().GetBool("assist")
	}
	if cmd.Flags().Changed("assist-model") {
		cfg.Assist.Model, _ = cmd.Flags().GetString("assist-model")
	}
	if cmd.Flags().Changed("assist-base-url") {
		cfg.Assist.BaseURL, _ = cmd.Flags().GetString("assist-base-url")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
		cfg.Telemetry.Enabled = true
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}
	if cfg.Database.Driver == "badger" && cfg.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// initializeEngine wires the store, engines and optional subsystems
// from configuration.
func initializeEngine(cfg *config.Config) (cliodyn.Cliodyn, error) {
	logger := cliodynLogger.NewDefaultLogger(parseLogLevel(cfg.Log.Level))

	// Error telemetry wraps the colored handler when enabled.
	if cfg.Telemetry.Enabled && cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(logger.Handler(), cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			logger = slog.New(parquetHandler)
			fmt.Printf("Error tracking enabled at: %s\n", cfg.Telemetry.ParquetPath)
		}
	}

	// Ledger store
	var ledger store.Store
	var err error
	switch cfg.Database.Driver {
	case "badger":
		ledger, err = store.NewBadgerStore(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
	case "memory":
		ledger = store.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	opts := &cliodyn.Options{}

	// Optional graph mirror
	if cfg.Mirror.Enabled {
		m, err := mirror.New(cfg.Mirror.URI, cfg.Mirror.Username, cfg.Mirror.Password, cfg.Mirror.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create graph mirror: %w", err)
		}
		opts.Mirror = m
		fmt.Printf("Graph mirror enabled: %s\n", cfg.Mirror.URI)
	}

	// Optional annotation assist, wrapped with a circuit breaker
	if cfg.Assist.Enabled {
		assistClient, err := assist.NewOpenAIClient(cfg.Assist, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create assist client: %w", err)
		}
		if cfg.CircuitBreaker.Enabled {
			opts.Assist = assist.NewCircuitBreakerClient(assistClient, cfg.CircuitBreaker, logger, "assist")
		} else {
			opts.Assist = assistClient
		}
		fmt.Printf("Annotation assist enabled: %s\n", cfg.Assist.Model)
	}

	client := cliodyn.NewClient(ledger, logger, opts)
	fmt.Printf("Cliodyn initialized successfully with driver: %s\n", cfg.Database.Driver)
	return client, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
