package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumapay/marketplace-order-service/internal/client"
	"github.com/lumapay/marketplace-order-service/internal/config"
	publisher "github.com/lumapay/marketplace-order-service/internal/infrastructure/kafka"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/metrics"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/migrate"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/postgres/repository"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/ratelimit"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/settlement"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/token"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/transferindex"
	usecase "github.com/lumapay/marketplace-order-service/internal/usecase/order"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	setupLogger(cfg.LogConfig)

	// Init database
	db := postgres.MustInitDB(cfg)
	if cfg.OrderDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.OrderDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	orderRepo := repository.NewDefaultOrderRepository(db)
	locker, err := repository.NewLeaseLocker(db)
	if err != nil {
		log.Fatalf("failed to init locker: %v", err)
	}

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := publisher.NewDefaultKafkaPublisher(brokers, cfg.KafkaService.Topic)
	defer pub.Close()

	transfers, err := transferindex.Open(cfg.TransferIndex.Path)
	if err != nil {
		log.Fatalf("failed to open transfer index: %v", err)
	}
	defer transfers.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	orderMetrics := metrics.NewOrderMetrics(registry)

	marketplace := client.NewMarketplaceClient(cfg.MarketplaceService.BaseURL)
	wallets := client.NewWalletClient(cfg.WalletService.BaseURL)

	uc := usecase.NewOrderUsecase(usecase.Dependencies{
		Repo:       orderRepo,
		Locker:     locker,
		Catalog:    marketplace,
		Wallets:    wallets,
		Users:      marketplace,
		Settlement: settlement.NewHTTPClient(cfg.SettlementService.BaseURL),
		Tokens:     token.NewJWTValidator(cfg.TokenService.AppSecrets),
		RateLimit:  ratelimit.NewEarnRateLimiter(cfg.Lifecycle.EarnAmountPerMinute),
		Transfers:  transfers,
		Content:    marketplace,
		Publisher:  pub,
		Metrics:    orderMetrics,

		OpenOrderTTL:        cfg.Lifecycle.OpenOrderTTL,
		IncomingTransferTTL: cfg.Lifecycle.IncomingTransferTTL,
		HistoryPageSize:     cfg.Lifecycle.HistoryPageSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expiry sweep for pending orders nobody reads anymore
	go func() {
		ticker := time.NewTicker(cfg.Lifecycle.ExpirySweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := uc.FailExpiredOrders(ctx); err != nil {
					slog.Error("expiry sweep failed", "error", err.Error())
				}
			}
		}
	}()

	metricsAddr := fmt.Sprintf("%s:%s", cfg.MetricsServer.Host, cfg.MetricsServer.Port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: metricsAddr, Handler: mux}

	go func() {
		slog.Info("metrics server started", "addr", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "error", err.Error())
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics server shutdown failed", "error", err.Error())
	}
}

func setupLogger(cfg config.LogConfig) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	output := os.Stdout
	if cfg.LogOutput == "stderr" {
		output = os.Stderr
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
