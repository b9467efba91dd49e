package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// PublishReceipt is the registry's answer to a successful publish call.
type PublishReceipt struct {
	// Duplicate is set when the registry reported "version already
	// exists" — a benign outcome under at-most-once publish semantics,
	// folded into Success but flagged distinctly in the report.
	Duplicate bool
}

// Registry pushes release artifacts to the package index.
//
// Publish consumes the trust token exactly once for the whole call;
// it fails with domain.ErrRegistryRejected on validation or scope
// rejection and domain.ErrRegistryUnavailable when the registry cannot
// be reached.
type Registry interface {
	Publish(ctx context.Context, token *domain.TrustToken, artifacts []domain.Artifact) (PublishReceipt, error)
}
