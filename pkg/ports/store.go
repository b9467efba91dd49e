package ports

import (
	"context"

	"github.com/aretw0/gantry/pkg/domain"
)

// ArtifactStore is the content-addressed holding area for build outputs
// between stages. It is the only shared mutable resource of a run:
// a stage may only write artifacts it declares as output, and stored
// artifacts are immutable until a fresh run of their producer
// overwrites them.
type ArtifactStore interface {
	// Upload stores content under name and returns its sha256 checksum.
	Upload(ctx context.Context, name string, content []byte, producer string) (string, error)

	// Download retrieves an artifact by name.
	// Returns domain.ErrArtifactNotFound if the name is absent.
	Download(ctx context.Context, name string) (domain.Artifact, error)

	// Stat returns metadata without fetching content.
	// Returns domain.ErrArtifactNotFound if the name is absent.
	Stat(ctx context.Context, name string) (domain.ArtifactInfo, error)

	// List returns metadata for every stored artifact, sorted by name.
	List(ctx context.Context) ([]domain.ArtifactInfo, error)
}
