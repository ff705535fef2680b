package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cnvrt/gemini-edit-image/internal/adapter/repo"
	"github.com/cnvrt/gemini-edit-image/internal/http/handlers"
	"github.com/cnvrt/gemini-edit-image/internal/http/httpapi"
	"github.com/cnvrt/gemini-edit-image/internal/infra"
	"github.com/cnvrt/gemini-edit-image/internal/infra/geoip"
	"github.com/cnvrt/gemini-edit-image/internal/middleware"
	"github.com/cnvrt/gemini-edit-image/internal/providers/genai"
	"github.com/cnvrt/gemini-edit-image/internal/storage"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	tempStore, err := storage.NewTempStore(cfg.TempDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize temp store")
	}

	// Without a credential the AI endpoints stay disabled; handlers report
	// the condition per request instead of crashing at boot.
	var ai handlers.AIClient
	client, err := genai.NewClient(genai.Options{
		APIKey:    cfg.GeminiAPIKey,
		BaseURL:   cfg.GeminiBaseURL,
		Model:     cfg.GeminiModel,
		TextModel: cfg.GeminiTextModel,
		Logger:    &logger,
	})
	switch {
	case err == nil:
		ai = client
	case errors.Is(err, genai.ErrMissingAPIKey):
		logger.Warn().Msg("GEMINI_API_KEY is not set; AI endpoints are disabled")
	default:
		logger.Fatal().Err(err).Msg("failed to initialize gemini client")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := handlers.NewApp(
		repo.NewMovieRepository(dbpool),
		repo.NewHashtagRepository(dbpool),
		tempStore,
		ai,
		cfg,
		logger,
	)

	router := httpapi.NewRouter(app, countryLookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
