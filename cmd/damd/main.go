// Package main implements the dam daemon: a REST host around the engine
// bridge, with multiple isolated sessions and an optional game archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/auth"
	"github.com/rs/zerolog"

	"dam/internal/engine"
	"dam/internal/http"
	"dam/internal/service"
	"dam/internal/storage"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	var (
		apiHost     = flag.String("api-host", "localhost", "API server host")
		apiPort     = flag.Int("api-port", 8080, "API server port")
		dev         = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL storage)")
		storagePath = flag.String("storage-path", "", "Path to SQLite database file (disables archiving if empty)")
		apiToken    = flag.String("api-token", "", "Bearer token protecting the API (open access if empty)")
		bookPath    = flag.String("book", "", "Path to the opening book file")
		bitbasePath = flag.String("bitbase", "", "Path to the endgame database file")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// Storage is optional; without it sessions run but games are not
	// archived.
	var store *storage.Store
	if *storagePath != "" {
		var err error
		store, err = storage.NewStore(*storagePath, *dev, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close storage cleanly")
			}
		}()
		log.Info().Str("path", *storagePath).Msg("persistent storage enabled")
	} else {
		log.Info().Msg("persistent storage disabled (use -storage-path to enable)")
	}

	// Only the token's hash crosses into the handler.
	tokenHash := ""
	if *apiToken != "" {
		var err error
		tokenHash, err = auth.HashPassword(*apiToken)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to hash API token")
		}
		log.Info().Msg("API token authentication enabled")
	}

	svc := service.New(store, engine.Config{
		BookPath:    *bookPath,
		BitbasePath: *bitbasePath,
	}, log)

	app := http.NewFiberApp(svc, store, tokenHash, *dev)
	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		log.Info().Str("addr", apiAddr).Msg("dam API server starting")
		if err := app.Listen(apiAddr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	}

	svc.Close()
	log.Info().Msg("exited")
}
