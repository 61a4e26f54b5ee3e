package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/app"
	"github.com/vendora/backend/internal/platform/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	// Prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	log.Info("Starting Vendora Backend v1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"cache", cfg.Cache.Type,
	)

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize app", "error", err)
	}
	defer a.Close()

	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	added, err := a.SeedBrands(seedCtx, cfg.Matching.Brands)
	cancel()
	if err != nil {
		log.Fatal("Failed to seed brands", "error", err)
	}
	log.Info("brand reference set ready", "added", added)

	log.Info("Matching configured",
		"suggest_threshold", cfg.Matching.SuggestThreshold,
		"autolink_threshold", cfg.Matching.AutoLinkThreshold,
		"transactional_link", cfg.Matching.TransactionalLink,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", "error", err)
		}
	case <-ctx.Done():
		log.Info("Shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}
