package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"restomanage/internal/auth"
	"restomanage/internal/config"
	"restomanage/internal/db"
	"restomanage/internal/feedback"
	"restomanage/internal/inventory"
	"restomanage/internal/order"
	"restomanage/internal/payment"
	"restomanage/internal/product"
	"restomanage/internal/production"
	"restomanage/internal/sale"
	"restomanage/internal/transport"
	"restomanage/internal/user"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "restomanage").Logger()

	log.Info().Msg("Restomanage starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	if err := pg.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)

	userRepo := user.NewRepository(pg.Pool)
	userService := user.NewService(userRepo, tokenManager)
	userHandler := user.NewHandler(userService)

	inventoryRepo := inventory.NewRepository(pg.Pool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryHandler := inventory.NewHandler(inventoryService)

	productRepo := product.NewRepository(pg.Pool)
	productService := product.NewService(productRepo)
	productHandler := product.NewHandler(productService)

	productionRepo := production.NewRepository(pg.Pool)
	productionService := production.NewService(productionRepo)
	productionHandler := production.NewHandler(productionService)

	orderRepo := order.NewRepository(pg.Pool)
	orderService := order.NewService(orderRepo, cfg.Order.ReservationTTL)
	orderHandler := order.NewHandler(orderService)

	paymentRepo := payment.NewRepository(pg.Pool)
	paymentService := payment.NewService(paymentRepo, payment.NewLocalProvider())
	paymentHandler := payment.NewHandler(paymentService)

	saleRepo := sale.NewRepository(pg.Pool)
	saleService := sale.NewService(saleRepo)
	saleHandler := sale.NewHandler(saleService)

	feedbackRepo := feedback.NewRepository(pg.Pool)
	feedbackService := feedback.NewService(feedbackRepo)
	feedbackHandler := feedback.NewHandler(feedbackService)

	sweeper := order.NewSweeper(orderRepo, cfg.Order.SweepInterval)
	go sweeper.Run(ctx)

	router := transport.NewRouter(transport.Handlers{
		TokenManager: tokenManager,
		User:         userHandler,
		Inventory:    inventoryHandler,
		Product:      productHandler,
		Production:   productionHandler,
		Order:        orderHandler,
		Payment:      paymentHandler,
		Sale:         saleHandler,
		Feedback:     feedbackHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
