package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/bot"
	"github.com/memegen/memebot/internal/composer"
	"github.com/memegen/memebot/internal/config"
	"github.com/memegen/memebot/internal/generator"
	"github.com/memegen/memebot/internal/handler"
	"github.com/memegen/memebot/internal/jobs"
	"github.com/memegen/memebot/internal/middleware"
	"github.com/memegen/memebot/internal/redis"
	"github.com/memegen/memebot/internal/repository"
	"github.com/memegen/memebot/internal/service"
	"github.com/memegen/memebot/internal/telegram"
)

const webhookRoute = "/telegram/webhook/{" + middleware.WebhookSecretParam + "}"

type ServeCmd struct{}

func (s *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	cfg := globals.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	tokenRepo := repository.NewTokenRepository(db.DB)
	sessionService := service.NewSessionService(tokenRepo, cfg.DefaultModel)
	poolService := service.NewPoolService(db, tokenRepo, cfg.TokenPoolSize, cfg.DefaultModel)

	if _, err := poolService.EnsureSeeded(ctx); err != nil {
		return fmt.Errorf("failed to seed token pool: %w", err)
	}

	translator, closeCache, err := newTranslator(cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	ollamaURL, err := url.Parse(cfg.OllamaURL)
	if err != nil {
		return fmt.Errorf("invalid OLLAMA_URL: %w", err)
	}
	gen := generator.New(api.NewClient(ollamaURL, http.DefaultClient), translator, generator.Options{
		Temperature:   cfg.OllamaTemperature,
		TopP:          cfg.OllamaTopP,
		MaxTokens:     cfg.OllamaMaxTokens,
		PivotLanguage: cfg.PivotLanguage,
		ReplyLanguage: cfg.ReplyLanguage,
	})

	fontData, err := composer.LoadFont(cfg.FontPath())
	if err != nil {
		return err
	}
	memeComposer, err := composer.New(composer.Options{
		ImagesDir:  cfg.ImagesDir(),
		OutputDir:  cfg.MemesDir(),
		FontData:   fontData,
		FontSize:   config.FontSize,
		CanvasSize: config.CanvasSize,
		WrapWidth:  config.WrapWidth,
		Padding:    config.TextBoxPadding,
	})
	if err != nil {
		return fmt.Errorf("failed to create composer: %w", err)
	}

	botAPI, err := telegram.NewAPI(cfg.BotToken, cfg.LogLevel == "debug")
	if err != nil {
		return err
	}

	dispatcher := bot.NewDispatcher(sessionService, gen, memeComposer, telegram.NewReplier(botAPI))
	telegramBot := telegram.NewBot(dispatcher)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", handler.NewHealthHandler(db, config.DBPingTimeout).ServeHTTP)

	var updates <-chan tgbotapi.Update
	switch cfg.TransportMode {
	case config.TransportWebhook:
		queue := telegram.NewQueue(config.UpdateQueueSize)
		bodyLimit := middleware.NewBodyLimitMiddleware(0)
		webhookSecret := middleware.NewWebhookSecretMiddleware(cfg.WebhookSecret)

		// With, not Use: the secret URL param exists only after routing.
		r.With(bodyLimit.Handler, webhookSecret.Handler).
			Post(webhookRoute, handler.NewWebhookHandler(queue).ServeHTTP)

		if err := telegram.RegisterWebhook(botAPI, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return err
		}
		updates = queue.Updates()
		log.Info().Msg("receiving updates via webhook")
	default:
		ch, err := telegram.StartPolling(botAPI, config.PollingTimeoutSeconds)
		if err != nil {
			return err
		}
		defer botAPI.StopReceivingUpdates()
		updates = ch
		log.Info().Msg("receiving updates via long polling")
	}

	cleanupJob := jobs.NewCleanupJob(config.CleanupJobInterval, jobs.Task{
		Name: "memes",
		Run: func(ctx context.Context) (int64, error) {
			return memeComposer.PruneOlderThan(ctx, cfg.MemeRetention())
		},
	})
	cleanupJob.Start()
	defer cleanupJob.Stop()

	runCtx, stopBot := context.WithCancel(ctx)
	defer stopBot()
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		telegramBot.Run(runCtx, updates)
	}()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerRequestTimeout + 5*time.Second,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("version", globals.Version).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	stopBot()
	select {
	case <-botDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("update loop did not stop before shutdown timeout")
	}

	log.Info().Msg("bot stopped")
	return nil
}

// newTranslator returns the translation client, cached in redis when
// REDIS_URL is set.
func newTranslator(cfg *config.Config) (generator.Translator, func(), error) {
	google := generator.NewGoogleTranslator(cfg.TranslateURL)
	if cfg.RedisURL == "" {
		return google, func() {}, nil
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Msg("redis connected")

	closeFn := func() {
		if err := redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	return generator.NewCachedTranslator(google, redisClient, cfg.TranslationCacheTTL()), closeFn, nil
}
