package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// Registry implements ports.Registry in memory. It enforces the trust
// contract a real index would: the token must match the configured
// audience, must not be expired, and is spent by the publish call.
// Re-publishing an artifact name that already exists reports the benign
// duplicate outcome instead of failing.
type Registry struct {
	audience string

	mu        sync.Mutex
	published map[string]domain.ArtifactInfo
}

// NewRegistry creates a registry accepting tokens for one audience.
func NewRegistry(audience string) *Registry {
	return &Registry{
		audience:  audience,
		published: make(map[string]domain.ArtifactInfo),
	}
}

// Publish uploads all artifacts in one call, consuming the token once.
func (r *Registry) Publish(ctx context.Context, token *domain.TrustToken, artifacts []domain.Artifact) (ports.PublishReceipt, error) {
	if err := ctx.Err(); err != nil {
		return ports.PublishReceipt{}, err
	}

	if _, err := token.Consume(time.Now()); err != nil {
		return ports.PublishReceipt{}, fmt.Errorf("%w: %v", domain.ErrRegistryRejected, err)
	}
	if token.Audience != r.audience {
		return ports.PublishReceipt{}, fmt.Errorf("%w: token scoped to %q, registry is %q",
			domain.ErrRegistryRejected, token.Audience, r.audience)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	duplicate := true
	for _, art := range artifacts {
		if _, exists := r.published[art.Name]; !exists {
			duplicate = false
		}
	}
	if duplicate && len(artifacts) > 0 {
		return ports.PublishReceipt{Duplicate: true}, nil
	}

	for _, art := range artifacts {
		r.published[art.Name] = domain.ArtifactInfo{
			Name:     art.Name,
			Producer: art.Producer,
			Checksum: art.Checksum,
			Size:     int64(len(art.Content)),
		}
	}
	return ports.PublishReceipt{}, nil
}

// Published returns the uploaded artifact names (tests).
func (r *Registry) Published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.published))
	for name := range r.published {
		names = append(names, name)
	}
	return names
}
