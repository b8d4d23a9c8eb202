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
	"github.com/vasiliy-maslov/pos-fulfillment/internal/config"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/db"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/notification"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/order"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/payment"
	"github.com/vasiliy-maslov/pos-fulfillment/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "pos-fulfillment").Logger()

	log.Info().Msg("POS fulfillment service starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dbConn, err := db.New(cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	var notifier order.ReadyNotifier = notification.LogDispatcher{}
	if cfg.Notification.WebhookURL != "" {
		notifier = &notification.WebhookDispatcher{
			Client: &http.Client{Timeout: 10 * time.Second},
			URL:    cfg.Notification.WebhookURL,
		}
	}

	provider := &payment.HTTPProviderClient{
		Client:  &http.Client{Timeout: 10 * time.Second},
		BaseURL: cfg.Provider.BaseURL,
	}

	router := transport.NewRouter(dbConn.Pool, provider, notifier)

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}
