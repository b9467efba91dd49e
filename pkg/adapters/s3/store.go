// Package s3 provides an ArtifactStore backed by any S3-compatible
// object store (MinIO, AWS S3), for pipelines that need artifacts to
// survive the worker that produced them.
package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aretw0/gantry/pkg/domain"
)

// Config holds the connection settings for the object store.
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Store implements ports.ArtifactStore on an S3 bucket.
// Artifact metadata (producer, checksum) travels as object user
// metadata; the bucket is created lazily on first use.
type Store struct {
	client   *minio.Client
	bucket   string
	region   string
	prefix   string
	initOnce sync.Once
	initErr  error
}

// NewStore creates a store from the given config.
func NewStore(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "artifacts"
	}

	return &Store{
		client: client,
		bucket: bucket,
		region: region,
		prefix: prefix,
	}, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *Store) objectKey(name string) string {
	return s.prefix + "/" + name
}

// Upload stores the artifact and returns its sha256 checksum.
func (s *Store) Upload(ctx context.Context, name string, content []byte, producer string) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(name),
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
			UserMetadata: map[string]string{
				"producer": producer,
				"checksum": checksum,
			},
		})
	if err != nil {
		return "", fmt.Errorf("s3 upload %q: %w", name, err)
	}
	return checksum, nil
}

// Download retrieves the artifact by name.
func (s *Store) Download(ctx context.Context, name string) (domain.Artifact, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return domain.Artifact{}, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(name), minio.GetObjectOptions{})
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("s3 download %q: %w", name, err)
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return domain.Artifact{}, domain.ErrArtifactNotFound
		}
		return domain.Artifact{}, fmt.Errorf("s3 download %q: %w", name, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		if isNotFound(err) {
			return domain.Artifact{}, domain.ErrArtifactNotFound
		}
		return domain.Artifact{}, fmt.Errorf("s3 stat %q: %w", name, err)
	}

	return domain.Artifact{
		Name:     name,
		Content:  content,
		Producer: stat.UserMetadata["Producer"],
		Checksum: stat.UserMetadata["Checksum"],
	}, nil
}

// Stat returns metadata without the content payload.
func (s *Store) Stat(ctx context.Context, name string) (domain.ArtifactInfo, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return domain.ArtifactInfo{}, fmt.Errorf("ensure bucket: %w", err)
	}

	stat, err := s.client.StatObject(ctx, s.bucket, s.objectKey(name), minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return domain.ArtifactInfo{}, domain.ErrArtifactNotFound
		}
		return domain.ArtifactInfo{}, fmt.Errorf("s3 stat %q: %w", name, err)
	}

	return domain.ArtifactInfo{
		Name:     name,
		Producer: stat.UserMetadata["Producer"],
		Checksum: stat.UserMetadata["Checksum"],
		Size:     stat.Size,
	}, nil
}

// List returns metadata for all artifacts under the prefix, sorted by
// name.
func (s *Store) List(ctx context.Context) ([]domain.ArtifactInfo, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	var infos []domain.ArtifactInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("s3 list: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, s.prefix+"/")
		info, err := s.Stat(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
