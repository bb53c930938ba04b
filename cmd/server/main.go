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

	"darma/internal/adapters/explorer"
	httpadapter "darma/internal/adapters/http"
	"darma/internal/adapters/pinata"
	"darma/internal/adapters/postgres"
	"darma/internal/config"
	"darma/internal/observability"
	"darma/internal/ports"
	"darma/internal/services/classify"
	"darma/internal/services/credit"
	"darma/internal/services/proofs"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	source := explorer.New(explorer.Options{
		BlockscoutAPIKey: cfg.BlockscoutAPIKey,
		EtherscanAPIKey:  cfg.EtherscanAPIKey,
		EtherscanBase:    cfg.EtherscanBase,
		Timeout:          cfg.HTTPTimeout,
		TransferWorkers:  cfg.TransferWorkers,
		Metrics:          metrics,
	})

	pinner := pinata.New(pinata.Options{
		JWT:       cfg.PinataJWT,
		APIKey:    cfg.PinataAPIKey,
		APISecret: cfg.PinataAPISecret,
		Timeout:   cfg.HTTPTimeout,
	})
	if pinner.Enabled() {
		if err := pinner.TestAuthentication(ctx); err != nil {
			log.Printf("pinata authentication check failed, proofs will use local ids: %v", err)
		}
	} else {
		log.Printf("pinata credentials not configured, proofs will use local ids")
	}

	var store ports.ProofRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer pool.Close()
		store = postgres.NewProofRepository(pool)
	} else {
		log.Printf("DATABASE_URL not set, running stateless")
	}

	creditSvc := credit.NewService(source, classify.New())
	generator := proofs.NewGenerator(pinner, proofs.NewHasher(), metrics)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpadapter.NewServer(creditSvc, generator, store, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (env=%s)", cfg.ListenAddr, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("server: %v", err)
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
