package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry          *prometheus.Registry
	paymentsProcessed prometheus.Counter
	paymentsFailed    *prometheus.CounterVec
	paymentDuration   prometheus.Histogram
	feesCharged       prometheus.Counter
	accountBalance    *prometheus.GaugeVec
	mu                sync.RWMutex
	logger            *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		paymentsProcessed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Total number of completed payments",
		}),
		paymentsFailed: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Total number of rejected payments by error kind",
		}, []string{"reason"}),
		paymentDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "payment_processing_duration_seconds",
			Help:    "Time taken to process a payment",
			Buckets: prometheus.DefBuckets,
		}),
		feesCharged: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "fees_charged_total",
			Help: "Total fees charged across all payments, in smallest units",
		}),
		accountBalance: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "account_balance",
			Help: "Current account balance in the currency's smallest unit",
		}, []string{"account_id", "currency"}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordPayment(duration time.Duration, fee int64, failureReason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if failureReason == "" {
		m.paymentsProcessed.Inc()
		m.feesCharged.Add(float64(fee))
	} else {
		m.paymentsFailed.WithLabelValues(failureReason).Inc()
	}

	m.paymentDuration.Observe(duration.Seconds())
}

func (m *MetricsCollector) UpdateAccountBalance(accountID, currency string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accountBalance.WithLabelValues(accountID, currency).Set(float64(balance))
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	m.logger.Info("Metrics collector shutdown complete")
	return nil
}
