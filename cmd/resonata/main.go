// Package main is the entry point for the Resonata play analytics backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/resonatalabs/resonata-backend/internal/domain/catalog"
	"github.com/resonatalabs/resonata-backend/internal/domain/history"
	"github.com/resonatalabs/resonata-backend/internal/domain/sorter"
	"github.com/resonatalabs/resonata-backend/internal/infra/cache"
	"github.com/resonatalabs/resonata-backend/internal/infra/localfiles"
	"github.com/resonatalabs/resonata-backend/internal/infra/mpd"
	"github.com/resonatalabs/resonata-backend/internal/infra/rankwork"
	"github.com/resonatalabs/resonata-backend/internal/transport/socketio"
	"github.com/resonatalabs/resonata-backend/internal/version"
)

func main() {
	// Command line flags
	port := flag.String("port", "3001", "HTTP server port")
	source := flag.String("source", "mpd", "Library source: mpd or local")
	mpdHost := flag.String("mpd-host", "localhost", "MPD host")
	mpdPort := flag.Int("mpd-port", 6600, "MPD port")
	mpdPassword := flag.String("mpd-password", "", "MPD password")
	musicDir := flag.String("music-dir", "", "Music directory for the local source")
	dataDir := flag.String("data-dir", "data", "Directory for play history and the catalog cache")
	noCache := flag.Bool("no-cache", false, "Disable the persistent catalog cache")
	maxClients := flag.Int("max-clients", 8, "Maximum concurrent external Socket.io clients")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Play Analytics Backend")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", *port).
		Str("source", *source).
		Str("data_dir", *dataDir).
		Bool("cache", !*noCache).
		Msg("Configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Play history is kept regardless of source. For MPD it mirrors the
	// sticker counts, for local files it is the count of record.
	historyStore := history.NewStore(*dataDir)
	defer func() {
		if err := historyStore.Flush(); err != nil {
			log.Error().Err(err).Msg("Failed to flush play history")
		}
	}()

	// Create the song source
	var (
		songSource catalog.SongSource
		mpdClient  *mpd.Client
		localSrc   *localfiles.Source
	)
	switch *source {
	case "mpd":
		mpdClient = mpd.NewClient(*mpdHost, *mpdPort, *mpdPassword)
		if err := mpdClient.Connect(); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MPD")
		}
		defer mpdClient.Close()

		if err := mpdClient.Ping(); err != nil {
			log.Fatal().Err(err).Msg("MPD ping failed")
		}
		log.Info().Str("host", *mpdHost).Int("port", *mpdPort).Msg("MPD connection verified")

		songSource = mpd.NewSource(mpdClient)
	case "local":
		if *musicDir == "" {
			log.Fatal().Msg("The local source requires -music-dir")
		}
		localSrc = localfiles.NewSource(*musicDir, historyStore)
		songSource = localSrc
	default:
		log.Fatal().Str("source", *source).Msg("Unknown source, expected mpd or local")
	}

	// Build the library, cache-backed unless disabled
	library := catalog.NewLibrary(songSource)
	var serverLibrary socketio.Library = library

	if !*noCache {
		db := cache.NewDB(filepath.Join(*dataDir, "catalog.db"))
		if err := db.Open(); err != nil {
			log.Fatal().Err(err).Msg("Failed to open catalog cache")
		}
		defer db.Close()

		cached := catalog.NewCachedLibrary(library, db)
		if err := cached.WarmStart(); err != nil {
			log.Warn().Err(err).Msg("Cache warm start failed, continuing with full refresh")
		}
		serverLibrary = cached
	}

	// Contextual rank worker. Completed batches go out to all clients;
	// the indirection lets the worker exist before the server does.
	var (
		socketServer *socketio.Server
		err          error
	)
	rankWorker := rankwork.NewWorker(library, rankwork.WithPublishFunc(func(results []rankwork.Result) {
		if socketServer != nil {
			socketServer.BroadcastRankResults(results)
		}
	}))

	// Socket.io server
	socketServer, err = socketio.NewServer(serverLibrary, rankWorker, sorter.NewService(), historyStore, socketio.Options{
		MaxExternalClients: *maxClients,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Socket.io server")
	}
	defer socketServer.Close()

	// Start blocks until the context is cancelled, so it runs on its
	// own goroutine.
	go rankWorker.Start(ctx)
	defer rankWorker.Stop()

	// Initial refresh. With a warm cache clients already have data; the
	// refresh replaces it with the current source state.
	refresh := func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer refreshCancel()

		if err := serverLibrary.Refresh(refreshCtx); err != nil {
			log.Error().Err(err).Msg("Library refresh failed")
			return
		}
		rankWorker.InvalidateAll()
		socketServer.BroadcastLibraryUpdated()
	}
	go refresh()

	// Collapse change bursts from the source into single refreshes
	debouncer := socketio.NewRefreshDebouncer(2*time.Second, refresh)
	defer debouncer.Stop()

	switch {
	case mpdClient != nil:
		go watchMPD(ctx, mpdClient, debouncer)
	case localSrc != nil:
		if err := localSrc.Watch(ctx); err != nil {
			log.Warn().Err(err).Msg("Filesystem watch unavailable, falling back to polling")
		}
		go watchLocal(ctx, localSrc, debouncer)
	}

	// Setup HTTP server
	mux := http.NewServeMux()

	mux.Handle("/socket.io/", socketServer)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if mpdClient != nil {
			if err := mpdClient.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"error","source":"disconnected"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(version.GetInfo())
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", ":"+*port).Msg("HTTP server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("HTTP server error")
	}

	log.Info().Msg("Server stopped")
}

// watchMPD triggers a refresh whenever MPD reports database or sticker
// changes.
func watchMPD(ctx context.Context, client *mpd.Client, debouncer *socketio.RefreshDebouncer) {
	events, err := client.Watch("database", "sticker")
	if err != nil {
		log.Warn().Err(err).Msg("MPD watch unavailable, library updates require manual refresh")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case subsystem, ok := <-events:
			if !ok {
				return
			}
			log.Debug().Str("subsystem", subsystem).Msg("MPD change")
			debouncer.Trigger()
		}
	}
}

// watchLocal polls the local source's stale flag, set by its filesystem
// watcher.
func watchLocal(ctx context.Context, src *localfiles.Source, debouncer *socketio.RefreshDebouncer) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if src.Stale() {
				debouncer.Trigger()
			}
		}
	}
}
