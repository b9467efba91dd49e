package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/gantry/pkg/domain"
)

// Issuer implements ports.TokenIssuer in memory. It mints single-use
// tokens for an allow-list of environments, mirroring the behavior of
// a real identity provider closely enough for orchestrator tests and
// dry runs.
type Issuer struct {
	approved map[string]bool
	ttl      time.Duration
	now      func() time.Time
}

// IssuerOption configures the issuer.
type IssuerOption func(*Issuer)

// WithTTL overrides the default 5 minute token lifetime.
func WithTTL(ttl time.Duration) IssuerOption {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an issuer approving exactly the given environments.
func NewIssuer(approvedEnvironments []string, opts ...IssuerOption) *Issuer {
	iss := &Issuer{
		approved: make(map[string]bool, len(approvedEnvironments)),
		ttl:      5 * time.Minute,
		now:      time.Now,
	}
	for _, env := range approvedEnvironments {
		iss.approved[env] = true
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// IssueToken mints a fresh single-use token scoped to one audience.
func (i *Issuer) IssueToken(ctx context.Context, environment, audience string) (*domain.TrustToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !i.approved[environment] {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnauthorizedEnvironment, environment)
	}
	value := fmt.Sprintf("gantry-%s-%s", audience, uuid.NewString())
	return domain.NewTrustToken(value, audience, environment, i.now().Add(i.ttl)), nil
}
