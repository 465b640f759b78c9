package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/efreitasn/tokensale/internal/config"
	"github.com/efreitasn/tokensale/internal/domain"
	"github.com/efreitasn/tokensale/internal/engine"
	"github.com/efreitasn/tokensale/internal/handler"
	"github.com/efreitasn/tokensale/internal/logger"
	"github.com/efreitasn/tokensale/internal/service"
	"github.com/efreitasn/tokensale/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up zap-backed slog logger.
	log, sync := logger.New(cfg.AppEnv == "prod", cfg.LogLevel)
	defer func() { _ = sync() }()
	slog.SetDefault(log)

	// Supply schedule.
	var schedule domain.SupplySchedule
	switch cfg.SupplyMode {
	case config.SupplyModeVesting:
		schedule = domain.NewStandardSchedule(cfg.SaleStart)
	default:
		schedule = domain.ZeroSchedule{}
	}

	// Invitation checker: disabled unless a signer is configured.
	var invitations *domain.InvitationChecker
	if cfg.InvitationSigner != (common.Address{}) {
		invitations = domain.NewInvitationChecker(cfg.InvitationSigner)
	}

	// Stores and backends.
	accounts := store.NewAccountStore()
	refunds := store.NewRefundStore()
	webhookStore := store.NewWebhookStore()

	// Engine.
	book := engine.NewOrderBook()
	matcher := engine.NewMatcher(book)

	// Services.
	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout)
	saleSvc := service.NewSaleService(
		log,
		book,
		matcher,
		schedule,
		accounts,
		accounts,
		invitations,
		refunds,
		webhookSvc,
		cfg.SaleStart,
		cfg.PresaleDuration,
		cfg.Owner,
		cfg.Beneficiary,
	)

	// Router.
	router := handler.NewRouter(saleSvc, webhookSvc, accounts, log)

	// Start background allocator with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	allocator := engine.NewAllocator(cfg.AllocationInterval, saleSvc)
	allocator.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		log.Info("server starting",
			slog.String("addr", addr),
			slog.String("supply_mode", cfg.SupplyMode),
			slog.Time("sale_start", cfg.SaleStart),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops allocator).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	log.Info("server stopped")
}
