package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"chatrelay/internal/config"
	"chatrelay/internal/dashboard"
	"chatrelay/internal/httpserver"
	"chatrelay/internal/llm"
	"chatrelay/internal/stats"
	"chatrelay/internal/telegram"
	"chatrelay/internal/transport"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	// Клиенту Telegram таймауты задаются контекстом на каждый вызов,
	// иначе общий таймаут http.Client обрубал бы long poll.
	telegramHTTP := transport.NewHTTPClient(0)
	completionHTTP := transport.NewHTTPClient(cfg.CompletionTimeout)

	historyStore := llm.NewMemoryHistoryStore(cfg.MaxHistory)
	llmClient := llm.NewOpenRouterClient(cfg.OpenRouter, completionHTTP, logger)
	registry := stats.NewRegistry(time.Now())

	botClient := telegram.NewClient(cfg.Telegram, telegramHTTP, cfg.RequestTimeout)
	dispatcher := telegram.NewDispatcher(telegram.DispatcherDeps{
		Bot:               botClient,
		LLM:               llmClient,
		History:           historyStore,
		Stats:             registry,
		Logger:            logger,
		Model:             cfg.OpenRouter.Model,
		CompletionTimeout: cfg.CompletionTimeout,
		ChunkDelay:        cfg.ChunkDelay,
	})
	poller := telegram.NewPoller(botClient, dispatcher, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:    logger,
		Dashboard: dashboard.NewHandler(registry, logger),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("dashboard starting", slog.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("dashboard failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")
	registry.SetOnline(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	wg.Wait()

	logger.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
