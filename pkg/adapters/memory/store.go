// Package memory provides in-process implementations of the gantry
// ports: an artifact store, an approval gate, a token issuer and a
// registry. They back unit tests and local dry runs.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/aretw0/gantry/pkg/domain"
)

// Store implements ports.ArtifactStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Artifact
	mu   sync.RWMutex
}

// NewStore creates an empty in-memory artifact store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Artifact),
	}
}

// Upload stores the content under name and returns its sha256 checksum.
func (s *Store) Upload(ctx context.Context, name string, content []byte, producer string) (string, error) {
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	// Copy so the caller can't mutate stored content by slice aliasing.
	copied := make([]byte, len(content))
	copy(copied, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = domain.Artifact{
		Name:     name,
		Content:  copied,
		Producer: producer,
		Checksum: checksum,
	}
	return checksum, nil
}

// Download retrieves an artifact by name.
func (s *Store) Download(ctx context.Context, name string) (domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.data[name]
	if !ok {
		return domain.Artifact{}, domain.ErrArtifactNotFound
	}

	ret := art
	ret.Content = make([]byte, len(art.Content))
	copy(ret.Content, art.Content)
	return ret, nil
}

// Stat returns artifact metadata without content.
func (s *Store) Stat(ctx context.Context, name string) (domain.ArtifactInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	art, ok := s.data[name]
	if !ok {
		return domain.ArtifactInfo{}, domain.ErrArtifactNotFound
	}
	return domain.ArtifactInfo{
		Name:     art.Name,
		Producer: art.Producer,
		Checksum: art.Checksum,
		Size:     int64(len(art.Content)),
	}, nil
}

// List returns metadata for all artifacts, sorted by name.
func (s *Store) List(ctx context.Context) ([]domain.ArtifactInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.ArtifactInfo, 0, len(s.data))
	for _, art := range s.data {
		infos = append(infos, domain.ArtifactInfo{
			Name:     art.Name,
			Producer: art.Producer,
			Checksum: art.Checksum,
			Size:     int64(len(art.Content)),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
