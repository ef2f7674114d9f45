package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/config"
	"github.com/travelai/booking-chat/backend/internal/handler"
	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/ai"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
	chatService "github.com/travelai/booking-chat/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Warn("failed to load .env file, continuing with system environment variables only", zap.Error(envErr))
	}

	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to load offer catalog", zap.Error(err))
	}

	// 缺少凭证不阻止启动，每次请求会返回 500
	aiService, err := ai.NewService(ctx, cfg.AI, logger)
	if err != nil {
		logger.Fatal("failed to initialize generation service", zap.Error(err))
	}

	language, err := chat.ParseLanguage(cfg.Session.DefaultLanguage)
	if err != nil {
		logger.Fatal("invalid DEFAULT_LANGUAGE", zap.Error(err))
	}

	sessions := chatService.NewService(catalog, aiService, language, logger, booking.WithTimeout(cfg.AI.Timeout))
	defer sessions.Shutdown()

	router := handler.NewRouter(handler.Deps{
		Config:    cfg,
		Catalog:   catalog,
		Completer: aiService,
		Sessions:  sessions,
		Logger:    logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

func loadCatalog(cfg config.CatalogConfig) (offer.Catalog, error) {
	if cfg.OffersFile == "" {
		return offer.NewSeedCatalog(), nil
	}
	return offer.LoadFile(cfg.OffersFile)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("booking chat backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
