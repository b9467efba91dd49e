// Package http provides the network adapters of the pipeline: the
// trust exchange client, the registry publish client, and the approval
// listener for gated stages.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
)

// TrustClient implements ports.TokenIssuer against an OIDC-style
// identity provider. It trades the pipeline's ambient request token
// for a short-lived credential scoped to one audience.
type TrustClient struct {
	issuerURL    string
	requestToken string
	client       *http.Client
}

// TrustOption configures the client.
type TrustOption func(*TrustClient)

// WithHTTPClient overrides the default client (10s timeout).
func WithHTTPClient(c *http.Client) TrustOption {
	return func(t *TrustClient) { t.client = c }
}

// NewTrustClient creates a trust exchange client. requestToken is the
// ambient identity credential injected into the pipeline's environment
// by the hosting platform; it can only mint tokens, never publish.
func NewTrustClient(issuerURL, requestToken string, opts ...TrustOption) *TrustClient {
	t := &TrustClient{
		issuerURL:    issuerURL,
		requestToken: requestToken,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type tokenRequest struct {
	Environment string `json:"environment"`
	Audience    string `json:"audience"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken performs the single authenticated exchange defined by the
// trusted-publish flow: {environment, audience} in, {token, expiry} out.
func (t *TrustClient) IssueToken(ctx context.Context, environment, audience string) (*domain.TrustToken, error) {
	body, err := json.Marshal(tokenRequest{Environment: environment, Audience: audience})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.issuerURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.requestToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExchangeUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var tr tokenResponse
		if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		return domain.NewTrustToken(tr.Token, audience, environment, tr.ExpiresAt), nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnauthorizedEnvironment, environment)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: issuer returned %d", domain.ErrExchangeUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("trust exchange: unexpected status %d", resp.StatusCode)
	}
}
