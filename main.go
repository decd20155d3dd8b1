// Command auspex serves the environmental telemetry API: station
// registration, reading ingestion, and time-windowed and aggregate queries
// over a sqlite store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/auspex-data/auspex/internal/api"
	"github.com/auspex-data/auspex/internal/config"
	"github.com/auspex-data/auspex/internal/db"
	"github.com/auspex-data/auspex/internal/service"
	"github.com/auspex-data/auspex/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to an optional JSON config file")
	listen      = flag.String("listen", "", "Listen address (overrides config)")
	dbPath      = flag.String("db", "", "Path to the sqlite database (overrides config)")
	debug       = flag.Bool("debug", false, "Mount admin debug routes (tailsql, backup)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("auspex %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Flags override the config file, which overrides the defaults.
	listenAddr := cfg.GetListenAddr()
	if *listen != "" {
		listenAddr = *listen
	}
	databasePath := cfg.GetDBPath()
	if *dbPath != "" {
		databasePath = *dbPath
	}
	mountDebug := *debug || cfg.GetDebug()

	log.Printf("auspex %s (%s)", version.Version, version.GitSHA)

	// The pool is created once here and handed by reference to everything
	// below; it is the only shared mutable resource in the process.
	database, err := db.NewDB(databasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	repo := db.NewRepository(database)
	stations := service.NewStationService(repo)
	readings := service.NewReadingService(repo)

	mux := api.NewServer(stations, readings).ServeMux()
	if mountDebug {
		database.AttachAdminRoutes(mux, databasePath)
	}

	server := &http.Server{
		Addr:    listenAddr,
		Handler: api.LoggingMiddleware(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("listening on %s (db %s)", listenAddr, databasePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("graceful shutdown complete")
}
