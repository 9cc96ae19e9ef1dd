package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"

	"payment_ledger/internal/api"
	"payment_ledger/internal/domain"
	"payment_ledger/internal/processor"
	"payment_ledger/internal/repository/memory"
	"payment_ledger/internal/service"
	"payment_ledger/pkg/crypto"
	"payment_ledger/pkg/metrics"
)

const adminAccount = "admin"

type testEnv struct {
	configRepo  *memory.ConfigRepository
	balanceRepo *memory.BalanceRepository
	journalRepo *memory.JournalRepository

	processor *processor.PaymentProcessor
	handler   *api.APIHandler
	emails    *service.MockEmailService
	logger    *slog.Logger
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	configRepo := memory.NewConfigRepository()
	rateRepo := memory.NewRateRepository()
	balanceRepo := memory.NewBalanceRepository()
	journalRepo := memory.NewJournalRepository()

	proc := processor.NewPaymentProcessor(configRepo, rateRepo, balanceRepo, journalRepo, adminAccount, nil)

	metricsCollector := metrics.NewMetricsCollector(nil)
	signer := crypto.NewSigner("test-secret", nil)
	emails := &service.MockEmailService{}
	receipts := service.NewReceiptService(emails, &service.MockSMSService{}, 1, nil)
	logger := slog.Default()

	handler := api.NewAPIHandler(proc, metricsCollector, signer, receipts, logger)

	t.Cleanup(func() {
		_ = receipts.Shutdown(context.Background())
	})

	return &testEnv{
		configRepo:  configRepo,
		balanceRepo: balanceRepo,
		journalRepo: journalRepo,
		processor:   proc,
		handler:     handler,
		emails:      emails,
		logger:      logger,
	}
}

func call(t *testing.T, env *testEnv, method, target, account string, payload interface{}) (*httptest.ResponseRecorder, int) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Content-Type", "application/json")
	if account != "" {
		r.Header.Set("X-Account-ID", account)
	}
	w := httptest.NewRecorder()

	switch {
	case method == "POST" && target == "/api/v1/deposits":
		env.handler.DepositHandler(w, r)
	case method == "POST" && target == "/api/v1/payments":
		env.handler.SendPaymentHandler(w, r)
	case method == "POST" && target == "/api/v1/admin/currencies":
		env.handler.SetCurrencyHandler(w, r)
	case method == "POST" && target == "/api/v1/admin/countries":
		env.handler.SetCountryHandler(w, r)
	case method == "POST" && target == "/api/v1/admin/rates":
		env.handler.SetRateHandler(w, r)
	case method == "POST" && target == "/api/v1/admin/fee-rate":
		env.handler.SetFeeRateHandler(w, r)
	case method == "POST" && target == "/api/v1/admin/clock":
		env.handler.SetClockHandler(w, r)
	default:
		t.Fatalf("unrouted call %s %s", method, target)
	}

	return w, w.Result().StatusCode
}

func mustConfigureCorridor(t *testing.T, env *testEnv) {
	t.Helper()
	steps := []struct {
		target  string
		payload interface{}
	}{
		{"/api/v1/admin/currencies", api.SetCurrencyRequest{Code: "USD", Decimals: 2}},
		{"/api/v1/admin/currencies", api.SetCurrencyRequest{Code: "EUR", Decimals: 2}},
		{"/api/v1/admin/countries", api.SetCountryRequest{Code: "US"}},
		{"/api/v1/admin/countries", api.SetCountryRequest{Code: "FR"}},
		{"/api/v1/admin/rates", api.SetRateRequest{From: "USD", To: "EUR", Rate: 85, Decimals: 2}},
		{"/api/v1/admin/fee-rate", api.SetFeeRateRequest{Rate: 250}},
	}
	for _, step := range steps {
		if _, code := call(t, env, "POST", step.target, adminAccount, step.payload); code != 200 {
			t.Fatalf("admin setup %s failed with %d", step.target, code)
		}
	}
}

func TestIntegration_CrossCurrencyPaymentFlow(t *testing.T) {
	env := setup(t)
	mustConfigureCorridor(t, env)

	if _, code := call(t, env, "POST", "/api/v1/deposits", "alice",
		api.DepositRequest{Currency: "USD", Amount: 1000}); code != 201 {
		t.Fatalf("deposit failed with %d", code)
	}

	w, code := call(t, env, "POST", "/api/v1/payments", "alice", api.PaymentRequest{
		Recipient:        "bob",
		Amount:           100,
		FromCurrency:     "USD",
		ToCurrency:       "EUR",
		SenderCountry:    "US",
		RecipientCountry: "FR",
	})
	if code != 201 {
		t.Fatalf("payment failed with %d: %s", code, w.Body.String())
	}
	var resp api.PaymentResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode payment response: %v", err)
	}
	if resp.TransactionID != 0 {
		t.Errorf("expected first transaction id 0, got %d", resp.TransactionID)
	}
	if resp.Fee != 2 {
		t.Errorf("expected fee 2, got %d", resp.Fee)
	}

	ctx := context.Background()
	if b, _ := env.balanceRepo.Balance(ctx, "alice", "USD"); b != 898 {
		t.Errorf("expected sender balance 898, got %d", b)
	}
	if b, _ := env.balanceRepo.Balance(ctx, "bob", "EUR"); b != 85 {
		t.Errorf("expected recipient balance 85, got %d", b)
	}
	tx, err := env.journalRepo.Get(ctx, 0)
	if err != nil {
		t.Fatalf("journal entry 0 missing: %v", err)
	}
	if tx.Status != domain.StatusCompleted || tx.Fee != 2 || tx.Rate != 85 {
		t.Errorf("unexpected journal entry %+v", tx)
	}
}

func TestIntegration_MissingAccountHeader(t *testing.T) {
	env := setup(t)

	_, code := call(t, env, "POST", "/api/v1/deposits", "",
		api.DepositRequest{Currency: "USD", Amount: 100})

	if code != 401 {
		t.Fatalf("expected 401 without X-Account-ID, got %d", code)
	}
}

func TestIntegration_NonAdminCannotConfigure(t *testing.T) {
	env := setup(t)

	_, code := call(t, env, "POST", "/api/v1/admin/currencies", "mallory",
		api.SetCurrencyRequest{Code: "USD", Decimals: 2})

	if code != 403 {
		t.Fatalf("expected 403 for non-admin, got %d", code)
	}
	supported, _ := env.configRepo.IsCurrencySupported(context.Background(), "USD")
	if supported {
		t.Error("currency must not be registered by a non-admin")
	}
}

func TestIntegration_PaymentWithoutRateLeavesStateUnchanged(t *testing.T) {
	env := setup(t)
	mustConfigureCorridor(t, env)
	ctx := context.Background()

	if _, code := call(t, env, "POST", "/api/v1/deposits", "alice",
		api.DepositRequest{Currency: "EUR", Amount: 500}); code != 201 {
		t.Fatal("deposit failed")
	}

	_, code := call(t, env, "POST", "/api/v1/payments", "alice", api.PaymentRequest{
		Recipient:        "bob",
		Amount:           100,
		FromCurrency:     "EUR",
		ToCurrency:       "USD",
		SenderCountry:    "FR",
		RecipientCountry: "US",
	})

	if code != 422 {
		t.Fatalf("expected 422 for missing rate, got %d", code)
	}
	if b, _ := env.balanceRepo.Balance(ctx, "alice", "EUR"); b != 500 {
		t.Errorf("expected balance unchanged at 500, got %d", b)
	}
	if id, _ := env.journalRepo.NextID(ctx); id != 0 {
		t.Errorf("expected empty journal, next id %d", id)
	}
}

func TestIntegration_MalformedCodesRejectedAtBoundary(t *testing.T) {
	env := setup(t)
	mustConfigureCorridor(t, env)

	_, code := call(t, env, "POST", "/api/v1/payments", "alice", api.PaymentRequest{
		Recipient:        "bob",
		Amount:           100,
		FromCurrency:     "USDT", // 4 letters never reaches the engine
		ToCurrency:       "EUR",
		SenderCountry:    "US",
		RecipientCountry: "FR",
	})

	if code != 400 {
		t.Fatalf("expected 400 for malformed currency code, got %d", code)
	}
}

func TestIntegration_ConcurrentPaymentsConserveFunds(t *testing.T) {
	env := setup(t)
	mustConfigureCorridor(t, env)
	ctx := context.Background()

	// Fee-free same-currency corridor so conservation is exact.
	if _, code := call(t, env, "POST", "/api/v1/admin/fee-rate", adminAccount,
		api.SetFeeRateRequest{Rate: 0}); code != 200 {
		t.Fatal("fee rate setup failed")
	}
	if _, code := call(t, env, "POST", "/api/v1/admin/rates", adminAccount,
		api.SetRateRequest{From: "USD", To: "USD", Rate: 100, Decimals: 2}); code != 200 {
		t.Fatal("rate setup failed")
	}
	if _, code := call(t, env, "POST", "/api/v1/deposits", "alice",
		api.DepositRequest{Currency: "USD", Amount: 1000}); code != 201 {
		t.Fatal("deposit failed")
	}

	n := 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			recipient := domain.Account(fmt.Sprintf("r%d", i%3))
			_, _ = call(t, env, "POST", "/api/v1/payments", "alice", api.PaymentRequest{
				Recipient:        recipient,
				Amount:           10,
				FromCurrency:     "USD",
				ToCurrency:       "USD",
				SenderCountry:    "US",
				RecipientCountry: "FR",
			})
		}(i)
	}
	wg.Wait()

	total, _ := env.balanceRepo.Balance(ctx, "alice", "USD")
	for i := 0; i < 3; i++ {
		b, _ := env.balanceRepo.Balance(ctx, domain.Account(fmt.Sprintf("r%d", i)), "USD")
		total += b
	}
	if total != 1000 {
		t.Fatalf("expected total 1000 after concurrent payments, got %d", total)
	}
}
