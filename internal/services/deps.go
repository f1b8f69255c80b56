package services

import (
	"context"
	"strings"
	"time"
)

// Email addresses compare and index case-insensitively; store them
// lowercased.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TxRunner runs a function inside a mongo transaction. Satisfied by
// *database.MongoDB; tests substitute a runner that calls fn directly.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) (interface{}, error)) (interface{}, error)
}

// CacheService is the slice of the redis cache the services use.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EmailService sends the transactional mails. Implemented by
// email.SMTPSender; tests substitute a recorder.
type EmailService interface {
	SendVerification(ctx context.Context, to, name, verifyURL string) error
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
	SendReferralSuccess(ctx context.Context, to, name, refereeName string) error
}
