package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Signer authenticates administrative mutation requests with
// HMAC-SHA256 over the request's canonical form.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.String("expected", expectedSignature),
			slog.String("received", signature))
		return false, fmt.Errorf("invalid signature")
	}

	return true, nil
}

// SignAdminRequest signs an administrative mutation: the acting
// account, the operation name and the raw request body.
func (s *Signer) SignAdminRequest(caller, operation string, body []byte) string {
	data := fmt.Sprintf("%s:%s:%s", caller, operation, body)
	return s.Sign([]byte(data))
}

func (s *Signer) VerifyAdminRequest(caller, operation string, body []byte, signature string) (bool, error) {
	data := fmt.Sprintf("%s:%s:%s", caller, operation, body)
	return s.Verify([]byte(data), signature)
}
