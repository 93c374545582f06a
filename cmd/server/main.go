package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamemarket/rmt-marketplace/configs"
	"github.com/gamemarket/rmt-marketplace/internal/auth"
	"github.com/gamemarket/rmt-marketplace/internal/chat"
	"github.com/gamemarket/rmt-marketplace/internal/chathub"
	"github.com/gamemarket/rmt-marketplace/internal/decay"
	"github.com/gamemarket/rmt-marketplace/internal/handlers"
	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/logger"
	"github.com/gamemarket/rmt-marketplace/internal/market"
	"github.com/gamemarket/rmt-marketplace/internal/payment"
	"github.com/gamemarket/rmt-marketplace/internal/reputation"
	"github.com/gamemarket/rmt-marketplace/internal/routes"
	"github.com/gamemarket/rmt-marketplace/internal/seed"
	"github.com/gamemarket/rmt-marketplace/internal/store"
	"go.uber.org/zap"
)

func main() {
	logger.Init()
	defer logger.Log.Sync()

	configs.LoadConfig()
	store.NewDB()
	store.DBMigrate()
	seed.Run()

	cfg := configs.AppConfig
	db := store.DB

	tokenLedger := ledger.New(db)
	authService := auth.New(db, cfg.JWT.Secret)
	marketService := market.New(db, tokenLedger)
	reputationService := reputation.New(db)
	chatService := chat.New(db)
	paymentClient := payment.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, logger.Log)
	paymentProcessor := payment.NewProcessor(db, tokenLedger, logger.Log)

	hub := chathub.NewHub(chatService, logger.Log)

	scheduler := decay.NewScheduler(db, tokenLedger, logger.Log)
	if err := scheduler.Start(cfg.Decay.Cron); err != nil {
		logger.Log.Fatal("failed to start decay scheduler", zap.Error(err))
	}

	h := &handlers.Handler{
		Auth:        authService,
		Ledger:      tokenLedger,
		Market:      marketService,
		Reputation:  reputationService,
		Chat:        chatService,
		Payments:    paymentClient,
		Processor:   paymentProcessor,
		Logger:      logger.Log,
		FrontendURL: cfg.Frontend.URL,
	}

	router := routes.NewRoutes(h, hub)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Log.Info("shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}

	sqlDB, err := store.DB.DB()
	if err != nil {
		logger.Log.Error("db close skipped, reason:", zap.Error(err))
	} else {
		sqlDB.Close()
		logger.Log.Info("db closed")
	}

	logger.Log.Info("server stopped")
}
