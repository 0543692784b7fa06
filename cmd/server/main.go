package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexthire/billing/adapter/api"
	"github.com/nexthire/billing/internal/app"
	"github.com/nexthire/billing/pkg/config"
	"github.com/nexthire/billing/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting billing server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	handler := api.NewBillingHandler(api.BillingHandlerConfig{
		InitiatePayment:    container.InitiatePaymentHandler,
		ConfirmPayment:     container.ConfirmPaymentHandler,
		ListPlans:          container.ListPlansHandler,
		ListCreditPackages: container.ListCreditPackagesHandler,
		GetBalance:         container.GetBalanceHandler,
		ListTransactions:   container.ListPaymentHistoryHandler,
		ListCreditHistory:  container.ListCreditHistoryHandler,
		Metrics:            container.Metrics,
		Logger:             logger,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.ServerAddr
	serverCfg.ReadTimeout = cfg.ServerReadTimeout
	serverCfg.IdleTimeout = cfg.ServerIdleTimeout
	server := api.NewServer(serverCfg, handler, container.Health, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}
}
