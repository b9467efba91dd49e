// Package redis provides Redis-backed implementations of the artifact
// store and the run locker, for pipelines whose stages execute on
// separate workers sharing a Redis instance.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/gantry/pkg/domain"
)

// Store implements ports.ArtifactStore on Redis hashes.
// Each artifact lives in one hash (content, producer, checksum); an
// index set tracks the stored names.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// StoreOption configures the store.
type StoreOption func(*Store)

// WithPrefix namespaces all keys (default "gantry:").
func WithPrefix(prefix string) StoreOption {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires artifacts after the given duration. Zero (default)
// keeps them until overwritten.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) { s.ttl = ttl }
}

// NewFromClient creates a store on an existing Redis client.
func NewFromClient(client *backend.Client, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		prefix: "gantry:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(name string) string {
	return s.prefix + "artifact:" + name
}

func (s *Store) indexKey() string {
	return s.prefix + "artifacts"
}

// Upload stores the artifact and returns its sha256 checksum.
func (s *Store) Upload(ctx context.Context, name string, content []byte, producer string) (string, error) {
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(name), map[string]any{
		"content":  content,
		"producer": producer,
		"checksum": checksum,
		"size":     len(content),
	})
	pipe.SAdd(ctx, s.indexKey(), name)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(name), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis upload %q: %w", name, err)
	}
	return checksum, nil
}

// Download retrieves the artifact by name.
func (s *Store) Download(ctx context.Context, name string) (domain.Artifact, error) {
	fields, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("redis download %q: %w", name, err)
	}
	if len(fields) == 0 {
		return domain.Artifact{}, domain.ErrArtifactNotFound
	}
	return domain.Artifact{
		Name:     name,
		Content:  []byte(fields["content"]),
		Producer: fields["producer"],
		Checksum: fields["checksum"],
	}, nil
}

// Stat returns metadata without the content payload.
func (s *Store) Stat(ctx context.Context, name string) (domain.ArtifactInfo, error) {
	vals, err := s.client.HMGet(ctx, s.key(name), "producer", "checksum", "size").Result()
	if err != nil {
		return domain.ArtifactInfo{}, fmt.Errorf("redis stat %q: %w", name, err)
	}
	if vals[0] == nil && vals[1] == nil {
		return domain.ArtifactInfo{}, domain.ErrArtifactNotFound
	}
	info := domain.ArtifactInfo{Name: name}
	if v, ok := vals[0].(string); ok {
		info.Producer = v
	}
	if v, ok := vals[1].(string); ok {
		info.Checksum = v
	}
	if v, ok := vals[2].(string); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.Size = n
		}
	}
	return info, nil
}

// List returns metadata for every stored artifact, sorted by name.
// Expired artifacts are lazily removed from the index.
func (s *Store) List(ctx context.Context) ([]domain.ArtifactInfo, error) {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	sort.Strings(names)

	infos := make([]domain.ArtifactInfo, 0, len(names))
	for _, name := range names {
		info, err := s.Stat(ctx, name)
		if err == domain.ErrArtifactNotFound {
			s.client.SRem(ctx, s.indexKey(), name)
			continue
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
