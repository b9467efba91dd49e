package domain

import (
	"log/slog"
	"sync"
	"time"
)

// TrustToken is a short-lived, audience-scoped identity credential
// obtained from the trust exchange per publish attempt. It is never
// persisted and may be consumed exactly once; retries must request a
// fresh token.
type TrustToken struct {
	Audience    string
	Environment string
	ExpiresAt   time.Time

	mu    sync.Mutex
	value string
	spent bool
}

// NewTrustToken wraps a raw credential value.
func NewTrustToken(value, audience, environment string, expiresAt time.Time) *TrustToken {
	return &TrustToken{
		Audience:    audience,
		Environment: environment,
		ExpiresAt:   expiresAt,
		value:       value,
	}
}

// Consume returns the raw credential value exactly once.
// A second call returns ErrTokenSpent; a call past expiry returns
// ErrTokenExpired. Either way the value is discarded.
func (t *TrustToken) Consume(now time.Time) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.spent {
		return "", ErrTokenSpent
	}
	t.spent = true
	v := t.value
	t.value = ""

	if !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt) {
		return "", ErrTokenExpired
	}
	return v, nil
}

// Spent reports whether the token has been consumed.
func (t *TrustToken) Spent() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spent
}

// LogValue keeps the credential out of structured logs.
func (t *TrustToken) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("audience", t.Audience),
		slog.String("environment", t.Environment),
		slog.Time("expires_at", t.ExpiresAt),
		slog.String("value", "[redacted]"),
	)
}
