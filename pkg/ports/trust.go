package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// TokenIssuer is the trust exchange: it trades the pipeline's ambient
// identity for a short-lived token scoped to one audience (the target
// registry) and one environment. This replaces static long-lived
// credentials; compromise of logs or artifact storage must never yield
// a reusable publishing credential.
//
// Fails with domain.ErrUnauthorizedEnvironment when the environment is
// not approved for issuance, and domain.ErrExchangeUnavailable when the
// identity provider cannot be reached.
type TokenIssuer interface {
	IssueToken(ctx context.Context, environment, audience string) (*domain.TrustToken, error)
}
