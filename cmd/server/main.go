package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"moviecatalog/internal/browse"
	"moviecatalog/internal/config"
	"moviecatalog/internal/handlers"
	"moviecatalog/internal/loading"
	"moviecatalog/internal/notify"
	"moviecatalog/internal/persist"
	"moviecatalog/internal/services"
	"moviecatalog/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	setupLogging(cfg)

	if cfg.TMDBAPIKey == "" {
		log.Fatal().Msg("TMDB_API_KEY environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: sqlite is always available, valkey is preferred when
	// configured and reachable.
	db, err := persist.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := persist.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	var kv persist.KV = persist.NewSQLite(db)
	if cfg.ValkeyAddr != "" {
		valkeyKV, err := persist.NewValkey(cfg.ValkeyAddr, cfg.ValkeyPassword)
		if err != nil {
			log.Warn().Err(err).Msg("valkey unavailable, falling back to sqlite persistence")
		} else {
			defer valkeyKV.Close()
			kv = valkeyKV
			log.Info().Str("addr", cfg.ValkeyAddr).Msg("using valkey persistence")
		}
	}

	notifier := notify.NewLogNotifier()
	adapter := persist.NewAdapter(kv)

	movieStore := store.New(ctx, adapter, notifier)
	log.Info().Int("movies", len(movieStore.Movies())).Msg("movie store loaded")

	counter := loading.NewCounter()
	tmdbClient := services.NewTMDBClient(cfg, counter)
	browser := browse.NewBrowser(tmdbClient, movieStore, notifier)

	refreshService := services.NewCatalogRefreshService(cfg.RefreshInterval, browser.Refresh)
	refreshService.StartScheduler(ctx)
	defer refreshService.Stop()

	movieHandler := handlers.NewMovieHandler(movieStore)
	catalogHandler := handlers.NewCatalogHandler(browser, tmdbClient)
	dataHandler := handlers.NewDataHandler(movieStore, refreshService)
	healthHandler := handlers.NewHealthHandler(counter)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /api/loading", healthHandler.LoadingStatus)

	// Collection routes
	mux.HandleFunc("GET /api/movies", movieHandler.ListMovies)
	mux.HandleFunc("POST /api/movies", movieHandler.CreateMovie)
	mux.HandleFunc("GET /api/movies/{id}", movieHandler.GetMovie)
	mux.HandleFunc("PUT /api/movies/{id}", movieHandler.UpdateMovie)
	mux.HandleFunc("DELETE /api/movies/{id}", movieHandler.DeleteMovie)
	mux.HandleFunc("POST /api/movies/delete", movieHandler.DeleteMultiple)
	mux.HandleFunc("POST /api/movies/{id}/favorite", movieHandler.ToggleFavorite)
	mux.HandleFunc("POST /api/movies/{id}/watched", movieHandler.ToggleWatched)
	mux.HandleFunc("POST /api/movies/{id}/rating", movieHandler.RateMovie)
	mux.HandleFunc("POST /api/movies/{id}/notes", movieHandler.UpdateNotes)
	mux.HandleFunc("GET /api/stats", movieHandler.GetStats)

	// Browse routes
	mux.HandleFunc("GET /api/browse", catalogHandler.GetBrowseState)
	mux.HandleFunc("POST /api/browse/category", catalogHandler.SetCategory)
	mux.HandleFunc("POST /api/browse/search", catalogHandler.Search)
	mux.HandleFunc("POST /api/browse/next-page", catalogHandler.NextPage)
	mux.HandleFunc("POST /api/browse/filters/{filter}", catalogHandler.ToggleFilter)
	mux.HandleFunc("POST /api/browse/filters/reset", catalogHandler.ResetFilters)
	mux.HandleFunc("POST /api/browse/card-event", catalogHandler.CardEvent)

	// Catalog lookup routes
	mux.HandleFunc("GET /api/catalog/movies/{id}", catalogHandler.GetMovieDetails)
	mux.HandleFunc("GET /api/catalog/movies/{id}/videos", catalogHandler.GetMovieVideos)
	mux.HandleFunc("GET /api/catalog/movies/{id}/credits", catalogHandler.GetMovieCredits)
	mux.HandleFunc("GET /api/catalog/movies/{id}/recommendations", catalogHandler.GetRecommendations)
	mux.HandleFunc("GET /api/catalog/genres", catalogHandler.GetGenres)

	// Data management routes
	mux.HandleFunc("GET /api/data/export", dataHandler.ExportData)
	mux.HandleFunc("POST /api/data/import", dataHandler.ImportData)
	mux.HandleFunc("POST /api/data/backup", dataHandler.CreateBackup)
	mux.HandleFunc("POST /api/data/restore", dataHandler.RestoreFromBackup)
	mux.HandleFunc("POST /api/data/clear", dataHandler.ClearAll)
	mux.HandleFunc("GET /api/data/refresh", dataHandler.RefreshStatus)
	mux.HandleFunc("POST /api/data/refresh", dataHandler.TriggerRefresh)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
