package service

import (
	"context"
	"fmt"
	"log/slog"
	"payment_ledger/internal/domain"
	"sync"
	"time"
)

type ReceiptChannel string

const (
	ReceiptEmail ReceiptChannel = "email"
	ReceiptSMS   ReceiptChannel = "sms"
)

// ReceiptService delivers payment receipts and deposit confirmations
// off the request path. Delivery is best-effort: the ledger itself
// never waits on a receipt.
type ReceiptService struct {
	emailService EmailService
	smsService   SMSService
	messageQueue chan ReceiptMessage
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

type ReceiptMessage struct {
	Channel   ReceiptChannel
	Recipient string
	Subject   string
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

type EmailService interface {
	SendEmail(to, subject, body string) error
}

type SMSService interface {
	SendSMS(to, message string) error
}

func NewReceiptService(
	emailService EmailService,
	smsService SMSService,
	workers int,
	logger *slog.Logger,
) *ReceiptService {
	if logger == nil {
		logger = slog.Default()
	}

	service := &ReceiptService{
		emailService: emailService,
		smsService:   smsService,
		messageQueue: make(chan ReceiptMessage, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

func (s *ReceiptService) SendPaymentReceipt(
	ctx context.Context,
	tx *domain.Transaction,
	recipient string,
	channel ReceiptChannel,
) error {
	subject := "Payment Completed"
	message := fmt.Sprintf(
		"Payment #%d completed: %d %s sent to %s, credited in %s (fee %d, rate %d).",
		tx.ID, tx.Amount, tx.FromCurrency, tx.Recipient, tx.ToCurrency, tx.Fee, tx.Rate,
	)

	receipt := ReceiptMessage{
		Channel:   channel,
		Recipient: recipient,
		Subject:   subject,
		Message:   message,
		Metadata: map[string]string{
			"transaction_id": fmt.Sprintf("%d", tx.ID),
			"from_currency":  string(tx.FromCurrency),
			"to_currency":    string(tx.ToCurrency),
		},
		CreatedAt: time.Now(),
	}

	select {
	case s.messageQueue <- receipt:
		s.logger.Info("Receipt queued",
			slog.String("channel", string(channel)),
			slog.String("recipient", recipient),
			slog.Uint64("transaction_id", tx.ID))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReceiptService) SendDepositConfirmation(
	ctx context.Context,
	account domain.Account,
	currency domain.CurrencyCode,
	amount int64,
	recipient string,
	channel ReceiptChannel,
) error {
	receipt := ReceiptMessage{
		Channel:   channel,
		Recipient: recipient,
		Subject:   "Deposit Confirmed",
		Message:   fmt.Sprintf("Deposit of %d %s credited to %s.", amount, currency, account),
		Metadata: map[string]string{
			"account":  string(account),
			"currency": string(currency),
		},
		CreatedAt: time.Now(),
	}

	select {
	case s.messageQueue <- receipt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ReceiptService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *ReceiptService) worker(id int) {
	defer s.wg.Done()

	s.logger.Info("Receipt worker started", slog.Int("worker_id", id))

	for {
		select {
		case msg := <-s.messageQueue:
			s.processReceipt(msg, id)
		case <-s.shutdownChan:
			s.logger.Info("Receipt worker stopping", slog.Int("worker_id", id))
			return
		}
	}
}

func (s *ReceiptService) processReceipt(msg ReceiptMessage, workerID int) {
	startTime := time.Now()
	var err error

	switch msg.Channel {
	case ReceiptEmail:
		err = s.emailService.SendEmail(msg.Recipient, msg.Subject, msg.Message)
	case ReceiptSMS:
		err = s.smsService.SendSMS(msg.Recipient, msg.Message)
	default:
		err = fmt.Errorf("unknown receipt channel: %s", msg.Channel)
	}

	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Failed to send receipt",
			slog.String("channel", string(msg.Channel)),
			slog.String("recipient", msg.Recipient),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	} else {
		s.logger.Info("Receipt sent successfully",
			slog.String("channel", string(msg.Channel)),
			slog.String("recipient", msg.Recipient),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
	}
}

func (s *ReceiptService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Receipt service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []struct {
		To      string
		Subject string
		Body    string
	}
}

func (m *MockEmailService) SendEmail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, struct {
		To      string
		Subject string
		Body    string
	}{to, subject, body})
	return nil
}

func (m *MockEmailService) Sent() []struct {
	To      string
	Subject string
	Body    string
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(m.SentEmails[:0:0], m.SentEmails...)
}

type MockSMSService struct {
	mu      sync.Mutex
	SentSMS []struct {
		To      string
		Message string
	}
}

func (m *MockSMSService) SendSMS(to, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentSMS = append(m.SentSMS, struct {
		To      string
		Message string
	}{to, message})
	return nil
}

func (m *MockSMSService) Sent() []struct {
	To      string
	Message string
} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append(m.SentSMS[:0:0], m.SentSMS...)
}
