package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"payment_ledger/internal/domain"
	"payment_ledger/internal/processor"
	"payment_ledger/internal/repository"
	"payment_ledger/internal/service"
	"payment_ledger/pkg/crypto"
	"payment_ledger/pkg/metrics"
	"payment_ledger/pkg/validator"
)

// APIHandler is the boundary that authenticates the caller and
// translates HTTP requests into processor calls. The caller identity
// travels in the X-Account-ID header; the engine itself never reads
// headers.
type APIHandler struct {
	processor      *processor.PaymentProcessor
	metrics        *metrics.MetricsCollector
	signer         *crypto.Signer
	validator      *validator.RequestValidator
	receipts       *service.ReceiptService
	logger         *slog.Logger
	requestTimeout time.Duration
}

func NewAPIHandler(
	proc *processor.PaymentProcessor,
	metricsCollector *metrics.MetricsCollector,
	signer *crypto.Signer,
	receipts *service.ReceiptService,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandler{
		processor:      proc,
		metrics:        metricsCollector,
		signer:         signer,
		validator:      validator.NewRequestValidator(),
		receipts:       receipts,
		logger:         logger,
		requestTimeout: 30 * time.Second,
	}
}

type DepositRequest struct {
	Currency domain.CurrencyCode `json:"currency"`
	Amount   int64               `json:"amount"`
}

type DepositResponse struct {
	Credited int64               `json:"credited"`
	Currency domain.CurrencyCode `json:"currency"`
	Balance  int64               `json:"balance"`
}

type PaymentRequest struct {
	Recipient        domain.Account      `json:"recipient"`
	Amount           int64               `json:"amount"`
	FromCurrency     domain.CurrencyCode `json:"from_currency"`
	ToCurrency       domain.CurrencyCode `json:"to_currency"`
	SenderCountry    domain.CountryCode  `json:"sender_country"`
	RecipientCountry domain.CountryCode  `json:"recipient_country"`
	ReceiptEmail     string              `json:"receipt_email,omitempty"`
}

type PaymentResponse struct {
	TransactionID uint64 `json:"transaction_id"`
	Fee           int64  `json:"fee"`
	Message       string `json:"message,omitempty"`
}

type SetCurrencyRequest struct {
	Code     domain.CurrencyCode `json:"code"`
	Decimals int                 `json:"decimals"`
}

type SetCountryRequest struct {
	Code domain.CountryCode `json:"code"`
}

type SetRateRequest struct {
	From     domain.CurrencyCode `json:"from"`
	To       domain.CurrencyCode `json:"to"`
	Rate     int64               `json:"rate"`
	Decimals int                 `json:"decimals"`
}

type SetFeeRateRequest struct {
	Rate int64 `json:"rate"`
}

type SetClockRequest struct {
	Timestamp int64 `json:"timestamp"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *APIHandler) DepositHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	caller, ok := h.caller(w, r, requestID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", requestID)
		return
	}

	if err := h.validator.ValidateCurrencyCode(req.Currency); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR", requestID)
		return
	}
	if err := h.validator.ValidateAmount(req.Amount); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR", requestID)
		return
	}

	credited, err := h.processor.Deposit(ctx, caller, req.Currency, req.Amount)
	if err != nil {
		h.sendProcessorError(w, err, requestID)
		return
	}

	balance, _ := h.processor.Balance(ctx, caller, req.Currency)
	h.metrics.UpdateAccountBalance(string(caller), string(req.Currency), balance)

	h.sendJSON(w, DepositResponse{Credited: credited, Currency: req.Currency, Balance: balance}, http.StatusCreated)
	h.logger.Info("Deposit processed",
		slog.String("request_id", requestID),
		slog.String("account", string(caller)),
		slog.String("currency", string(req.Currency)),
		slog.Int64("amount", req.Amount))
}

func (h *APIHandler) SendPaymentHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := uuid.NewString()

	caller, ok := h.caller(w, r, requestID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", requestID)
		return
	}

	if err := h.validator.ValidatePayment(req.Recipient, req.Amount,
		req.FromCurrency, req.ToCurrency, req.SenderCountry, req.RecipientCountry); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR", requestID)
		return
	}

	id, err := h.processor.SendPayment(ctx, caller, processor.PaymentRequest{
		Recipient:        req.Recipient,
		Amount:           req.Amount,
		FromCurrency:     req.FromCurrency,
		ToCurrency:       req.ToCurrency,
		SenderCountry:    req.SenderCountry,
		RecipientCountry: req.RecipientCountry,
	})
	duration := time.Since(startTime)

	if err != nil {
		h.metrics.RecordPayment(duration, 0, failureReason(err))
		h.logger.Error("Payment failed",
			slog.String("request_id", requestID),
			slog.String("sender", string(caller)),
			slog.String("error", err.Error()))
		h.sendProcessorError(w, err, requestID)
		return
	}

	tx, txErr := h.processor.Transaction(ctx, id)
	var fee int64
	if txErr == nil {
		fee = tx.Fee
	}
	h.metrics.RecordPayment(duration, fee, "")

	if h.receipts != nil && req.ReceiptEmail != "" && tx != nil {
		if err := h.receipts.SendPaymentReceipt(ctx, tx, req.ReceiptEmail, service.ReceiptEmail); err != nil {
			h.logger.Warn("Receipt not queued",
				slog.String("request_id", requestID),
				slog.String("error", err.Error()))
		}
	}

	h.sendJSON(w, PaymentResponse{
		TransactionID: id,
		Fee:           fee,
		Message:       "Payment completed successfully",
	}, http.StatusCreated)
	h.logger.Info("Payment processed",
		slog.String("request_id", requestID),
		slog.Uint64("transaction_id", id),
		slog.String("sender", string(caller)),
		slog.String("recipient", string(req.Recipient)))
}

func (h *APIHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var id uint64
	if _, err := fmt.Sscanf(r.URL.Query().Get("id"), "%d", &id); err != nil {
		h.sendError(w, "Transaction ID is required", http.StatusBadRequest, "MISSING_ID", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	tx, err := h.processor.Transaction(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Transaction not found", http.StatusNotFound, "NOT_FOUND", requestID)
		} else {
			h.sendError(w, "Failed to get transaction", http.StatusInternalServerError, "SERVER_ERROR", requestID)
		}
		return
	}

	h.sendJSON(w, tx, http.StatusOK)
}

func (h *APIHandler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	caller, ok := h.caller(w, r, requestID)
	if !ok {
		return
	}

	currency := domain.CurrencyCode(r.URL.Query().Get("currency"))
	if err := h.validator.ValidateCurrencyCode(currency); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	balance, err := h.processor.Balance(ctx, caller, currency)
	if err != nil {
		h.sendError(w, "Failed to get balance", http.StatusInternalServerError, "SERVER_ERROR", requestID)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"account":  caller,
		"currency": currency,
		"balance":  balance,
	}, http.StatusOK)
}

func (h *APIHandler) GetRateHandler(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	from := domain.CurrencyCode(r.URL.Query().Get("from"))
	to := domain.CurrencyCode(r.URL.Query().Get("to"))
	if h.validator.ValidateCurrencyCode(from) != nil || h.validator.ValidateCurrencyCode(to) != nil {
		h.sendError(w, "from and to currency codes are required", http.StatusBadRequest, "VALIDATION_ERROR", requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	rate, err := h.processor.ExchangeRate(ctx, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.sendError(w, "Rate not found", http.StatusNotFound, "NOT_FOUND", requestID)
		} else {
			h.sendError(w, "Failed to get rate", http.StatusInternalServerError, "SERVER_ERROR", requestID)
		}
		return
	}

	h.sendJSON(w, rate, http.StatusOK)
}

func (h *APIHandler) SetCurrencyHandler(w http.ResponseWriter, r *http.Request) {
	h.adminMutation(w, r, "set_currency", func(ctx context.Context, caller domain.Account, body []byte) error {
		var req SetCurrencyRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
		if err := h.validator.ValidateCurrencyCode(req.Code); err != nil {
			return err
		}
		return h.processor.SetSupportedCurrency(ctx, caller, req.Code, req.Decimals)
	})
}

func (h *APIHandler) SetCountryHandler(w http.ResponseWriter, r *http.Request) {
	h.adminMutation(w, r, "set_country", func(ctx context.Context, caller domain.Account, body []byte) error {
		var req SetCountryRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
		if err := h.validator.ValidateCountryCode(req.Code); err != nil {
			return err
		}
		return h.processor.SetSupportedCountry(ctx, caller, req.Code)
	})
}

func (h *APIHandler) SetRateHandler(w http.ResponseWriter, r *http.Request) {
	h.adminMutation(w, r, "set_rate", func(ctx context.Context, caller domain.Account, body []byte) error {
		var req SetRateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
		if err := h.validator.ValidateCurrencyCode(req.From); err != nil {
			return err
		}
		if err := h.validator.ValidateCurrencyCode(req.To); err != nil {
			return err
		}
		return h.processor.SetExchangeRate(ctx, caller, req.From, req.To, req.Rate, req.Decimals)
	})
}

func (h *APIHandler) SetFeeRateHandler(w http.ResponseWriter, r *http.Request) {
	h.adminMutation(w, r, "set_fee_rate", func(ctx context.Context, caller domain.Account, body []byte) error {
		var req SetFeeRateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
		return h.processor.SetFeeRate(ctx, caller, req.Rate)
	})
}

func (h *APIHandler) SetClockHandler(w http.ResponseWriter, r *http.Request) {
	h.adminMutation(w, r, "set_clock", func(ctx context.Context, caller domain.Account, body []byte) error {
		var req SetClockRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return errInvalidBody
		}
		return h.processor.SetClock(ctx, caller, req.Timestamp)
	})
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	}
	h.sendJSON(w, response, http.StatusOK)
}

var errInvalidBody = errors.New("invalid request body")

// adminMutation shares the plumbing of all administrative setters:
// caller extraction, optional HMAC verification and error mapping.
// Authorization itself stays inside the processor.
func (h *APIHandler) adminMutation(w http.ResponseWriter, r *http.Request, operation string, apply func(ctx context.Context, caller domain.Account, body []byte) error) {
	requestID := uuid.NewString()
	caller, ok := h.caller(w, r, requestID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", requestID)
		return
	}

	if signature := r.Header.Get("X-Signature"); signature != "" {
		if valid, err := h.signer.VerifyAdminRequest(string(caller), operation, body, signature); !valid || err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE", requestID)
			return
		}
	}

	if err := apply(ctx, caller, body); err != nil {
		if errors.Is(err, errInvalidBody) {
			h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", requestID)
			return
		}
		if errors.Is(err, validator.ErrInvalidCurrency) || errors.Is(err, validator.ErrInvalidCountry) {
			h.sendError(w, err.Error(), http.StatusBadRequest, "VALIDATION_ERROR", requestID)
			return
		}
		h.sendProcessorError(w, err, requestID)
		return
	}

	h.sendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	h.logger.Info("Admin operation applied",
		slog.String("request_id", requestID),
		slog.String("operation", operation),
		slog.String("caller", string(caller)))
}

func (h *APIHandler) caller(w http.ResponseWriter, r *http.Request, requestID string) (domain.Account, bool) {
	account := r.Header.Get("X-Account-ID")
	if account == "" {
		h.sendError(w, "X-Account-ID header is required", http.StatusUnauthorized, "MISSING_ACCOUNT", requestID)
		return "", false
	}
	return domain.Account(account), true
}

func (h *APIHandler) sendProcessorError(w http.ResponseWriter, err error, requestID string) {
	status, code := statusForError(err)
	h.sendError(w, err.Error(), status, code, requestID)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, processor.ErrUnauthorized):
		return http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, processor.ErrInvalidAmount):
		return http.StatusBadRequest, "INVALID_AMOUNT"
	case errors.Is(err, processor.ErrInvalidRecipient):
		return http.StatusBadRequest, "INVALID_RECIPIENT"
	case errors.Is(err, processor.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"
	case errors.Is(err, processor.ErrCurrencyNotSupported):
		return http.StatusUnprocessableEntity, "CURRENCY_NOT_SUPPORTED"
	case errors.Is(err, processor.ErrCountryNotSupported):
		return http.StatusUnprocessableEntity, "COUNTRY_NOT_SUPPORTED"
	case errors.Is(err, processor.ErrComplianceCheckFailed):
		return http.StatusUnprocessableEntity, "COMPLIANCE_CHECK_FAILED"
	case errors.Is(err, processor.ErrExchangeRateUnavailable):
		return http.StatusUnprocessableEntity, "EXCHANGE_RATE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "SERVER_ERROR"
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, processor.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, processor.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, processor.ErrInvalidRecipient):
		return "invalid_recipient"
	case errors.Is(err, processor.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, processor.ErrCurrencyNotSupported):
		return "currency_not_supported"
	case errors.Is(err, processor.ErrCountryNotSupported):
		return "country_not_supported"
	case errors.Is(err, processor.ErrComplianceCheckFailed):
		return "compliance_check_failed"
	case errors.Is(err, processor.ErrExchangeRateUnavailable):
		return "exchange_rate_unavailable"
	default:
		return "internal_error"
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code, requestID string) {
	errorResponse := ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("request_id", requestID),
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}

func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/deposits", h.DepositHandler)
	mux.HandleFunc("POST /api/v1/payments", h.SendPaymentHandler)
	mux.HandleFunc("GET /api/v1/transactions", h.GetTransactionHandler)
	mux.HandleFunc("GET /api/v1/balance", h.GetBalanceHandler)
	mux.HandleFunc("GET /api/v1/rates", h.GetRateHandler)
	mux.HandleFunc("POST /api/v1/admin/currencies", h.SetCurrencyHandler)
	mux.HandleFunc("POST /api/v1/admin/countries", h.SetCountryHandler)
	mux.HandleFunc("POST /api/v1/admin/rates", h.SetRateHandler)
	mux.HandleFunc("POST /api/v1/admin/fee-rate", h.SetFeeRateHandler)
	mux.HandleFunc("POST /api/v1/admin/clock", h.SetClockHandler)
	mux.HandleFunc("GET /api/health", h.HealthCheckHandler)
}
