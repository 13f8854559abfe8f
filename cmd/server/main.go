package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/preflight/internal/api"
	"github.com/yegors/preflight/internal/briefing"
	"github.com/yegors/preflight/internal/config"
	"github.com/yegors/preflight/internal/storage/sqlite"
	"github.com/yegors/preflight/internal/weather"
	"github.com/yegors/preflight/internal/websocket"
	"github.com/yegors/preflight/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Preflight server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the airport catalog and import the CSVs when it is missing or stale
	airportStorage, err := sqlite.NewAirportStorage(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer airportStorage.Close()
	log.Info("Using SQLite storage", logger.String("path", cfg.Storage.SQLitePath))

	maxAge := time.Duration(cfg.Airports.RefreshAfterDays) * 24 * time.Hour
	if err := airportStorage.EnsureCatalog(ctx, cfg.Airports.AirportsDBPath, cfg.Airports.RunwaysDBPath, maxAge); err != nil {
		log.Error("Failed to load airport catalog", logger.Error(err))
		os.Exit(1)
	}

	// Briefing history shares the catalog database
	briefingStorage := sqlite.NewBriefingStorage(airportStorage.GetDB(), log)

	// Create weather service
	weatherService := weather.NewService(weather.Config(cfg.Weather), log)
	if err := weatherService.Start(); err != nil {
		log.Error("Failed to start weather service", logger.Error(err))
		os.Exit(1)
	}

	briefingService := briefing.NewService(
		airportStorage,
		weatherService,
		briefingStorage,
		briefing.Config{
			CruiseSpeedKts: cfg.Briefing.CruiseSpeedKts,
			Timeout:        time.Duration(cfg.Briefing.TimeoutSeconds) * time.Second,
		},
		log,
	)

	// Create WebSocket server for live airport code resolution
	wsServer := websocket.NewServer(cfg.Server.CORSAllowedOrigins, log)
	searchHandler := api.NewAirportSearchHandler(
		airportStorage,
		cfg.Airports.SearchLimit,
		time.Duration(cfg.Resolver.DebounceMs)*time.Millisecond,
		cfg.Resolver.MinChars,
		log,
	)
	wsServer.SetMessageHandler(searchHandler)
	go wsServer.Run()

	// Create API router
	handler := api.NewHandler(airportStorage, briefingService, briefingStorage, cfg, log)
	handler.SetWeatherStatus(weatherService)
	handler.SetSocketStatus(wsServer)
	router := api.NewRouter(handler, wsServer, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-serverErr:
		log.Error("HTTP server error", logger.String("addr", server.Addr), logger.Error(err))
	}

	log.Info("Shutting down server...")

	// Stop accepting requests before tearing down what they depend on
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.String("addr", server.Addr), logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete", logger.String("addr", server.Addr))
	}

	log.Info("Stopping WebSocket server...")
	wsServer.Stop()

	log.Info("Stopping weather service...")
	if err := weatherService.Stop(); err != nil {
		log.Error("Error stopping weather service", logger.Error(err))
	}

	cancel()
	log.Info("Server fully stopped")
}
