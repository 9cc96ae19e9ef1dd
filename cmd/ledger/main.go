package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"payment_ledger/internal/api"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/processor"
	"payment_ledger/internal/repository/memory"
	"payment_ledger/internal/service"
	"payment_ledger/pkg/crypto"
	"payment_ledger/pkg/metrics"
	"syscall"
	"time"
)

const (
	appName = "payment_ledger"
)

func main() {
	logger := setupLogger()
	logger.Info("Starting application",
		slog.String("name", appName))

	admin := domain.Account(getenv("LEDGER_ADMIN", "admin"))

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := crypto.NewSigner(getenv("LEDGER_SIGNING_KEY", "dev-signing-key"), logger)
	configRepo := memory.NewConfigRepository()
	rateRepo := memory.NewRateRepository()
	balanceRepo := memory.NewBalanceRepository()
	journalRepo := memory.NewJournalRepository()
	paymentProcessor := processor.NewPaymentProcessor(configRepo, rateRepo, balanceRepo, journalRepo, admin, logger)
	receiptService := setupReceiptService(logger)
	apiHandler := api.NewAPIHandler(paymentProcessor, metricsCollector, signer, receiptService, logger)
	metricsServer := metricsCollector.StartMetricsServer(":9090")
	httpServer := startHTTPServer(apiHandler, logger)
	waitForShutdown(logger, httpServer, metricsServer, receiptService, metricsCollector)
	logger.Info("Application shutdown complete")
}

func setupLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func setupReceiptService(logger *slog.Logger) *service.ReceiptService {
	emailService := &service.MockEmailService{}
	smsService := &service.MockSMSService{}

	return service.NewReceiptService(
		emailService,
		smsService,
		3,
		logger,
	)
}

func startHTTPServer(apiHandler *api.APIHandler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()

	apiHandler.RegisterRoutes(mux)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"name": "%s", "status": "ok"}`, appName)
	})

	server := &http.Server{
		Addr:         ":8080",
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	return server
}

func waitForShutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	receiptService *service.ReceiptService,
	metricsCollector *metrics.MetricsCollector,
) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
	}

	if err := receiptService.Shutdown(ctx); err != nil {
		logger.Error("Receipt service shutdown failed", slog.String("error", err.Error()))
	}

	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
	}
}
