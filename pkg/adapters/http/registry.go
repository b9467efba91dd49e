package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// RegistryClient implements ports.Registry over HTTP. All artifacts go
// up in a single multipart request so the trust token is consumed by
// exactly one call; a retry needs a fresh token.
type RegistryClient struct {
	uploadURL string
	client    *http.Client
}

// RegistryOption configures the client.
type RegistryOption func(*RegistryClient)

// WithRegistryHTTPClient overrides the default client (60s timeout;
// uploads carry payloads).
func WithRegistryHTTPClient(c *http.Client) RegistryOption {
	return func(r *RegistryClient) { r.client = c }
}

// NewRegistryClient creates a publish client for the given upload URL.
func NewRegistryClient(uploadURL string, opts ...RegistryOption) *RegistryClient {
	r := &RegistryClient{
		uploadURL: uploadURL,
		client:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish uploads the artifacts, consuming the token once.
//
// A "version already exists" rejection is the benign duplicate case
// under at-most-once semantics and is reported as a successful receipt
// with Duplicate set, never as an error.
func (r *RegistryClient) Publish(ctx context.Context, token *domain.TrustToken, artifacts []domain.Artifact) (ports.PublishReceipt, error) {
	credential, err := token.Consume(time.Now())
	if err != nil {
		return ports.PublishReceipt{}, fmt.Errorf("%w: %v", domain.ErrRegistryRejected, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, art := range artifacts {
		part, err := writer.CreateFormFile("content", art.Name)
		if err != nil {
			return ports.PublishReceipt{}, err
		}
		if _, err := part.Write(art.Content); err != nil {
			return ports.PublishReceipt{}, err
		}
		if err := writer.WriteField("checksum:"+art.Name, art.Checksum); err != nil {
			return ports.PublishReceipt{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return ports.PublishReceipt{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.uploadURL, &body)
	if err != nil {
		return ports.PublishReceipt{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := r.client.Do(req)
	if err != nil {
		return ports.PublishReceipt{}, fmt.Errorf("%w: %v", domain.ErrRegistryUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return ports.PublishReceipt{}, nil
	case resp.StatusCode == http.StatusConflict:
		return ports.PublishReceipt{Duplicate: true}, nil
	case resp.StatusCode >= 500:
		return ports.PublishReceipt{}, fmt.Errorf("%w: registry returned %d", domain.ErrRegistryUnavailable, resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// Some indexes report duplicates as 400 with a message rather
		// than 409.
		if strings.Contains(strings.ToLower(string(detail)), "already exists") {
			return ports.PublishReceipt{Duplicate: true}, nil
		}
		return ports.PublishReceipt{}, fmt.Errorf("%w: status %d: %s",
			domain.ErrRegistryRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
}
