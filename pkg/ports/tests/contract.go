package tests

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/ports"
)

// RunArtifactStoreContract is a reusable suite that verifies an adapter
// complies with ports.ArtifactStore semantics.
func RunArtifactStoreContract(t *testing.T, store ports.ArtifactStore) {
	t.Helper()
	ctx := context.Background()

	content := []byte("wheel bytes")
	wantSum := sha256.Sum256(content)

	t.Run("Upload_ReturnsChecksum", func(t *testing.T) {
		sum, err := store.Upload(ctx, "wheel", content, "build")
		if err != nil {
			t.Fatalf("unexpected upload error: %v", err)
		}
		if sum != hex.EncodeToString(wantSum[:]) {
			t.Errorf("checksum mismatch. got %q", sum)
		}
	})

	t.Run("Download_RoundTrip", func(t *testing.T) {
		art, err := store.Download(ctx, "wheel")
		if err != nil {
			t.Fatalf("unexpected download error: %v", err)
		}
		if string(art.Content) != string(content) {
			t.Errorf("content mismatch. got %q", art.Content)
		}
		if art.Producer != "build" {
			t.Errorf("producer mismatch. got %q", art.Producer)
		}
		if art.Checksum != hex.EncodeToString(wantSum[:]) {
			t.Errorf("checksum mismatch. got %q", art.Checksum)
		}
	})

	t.Run("Stat_Metadata", func(t *testing.T) {
		info, err := store.Stat(ctx, "wheel")
		if err != nil {
			t.Fatalf("unexpected stat error: %v", err)
		}
		if info.Name != "wheel" || info.Size != int64(len(content)) {
			t.Errorf("unexpected info: %+v", info)
		}
	})

	t.Run("Download_NotFound", func(t *testing.T) {
		_, err := store.Download(ctx, "no-such-artifact")
		if !errors.Is(err, domain.ErrArtifactNotFound) {
			t.Errorf("expected ErrArtifactNotFound, got %v", err)
		}
	})

	t.Run("Stat_NotFound", func(t *testing.T) {
		_, err := store.Stat(ctx, "no-such-artifact")
		if !errors.Is(err, domain.ErrArtifactNotFound) {
			t.Errorf("expected ErrArtifactNotFound, got %v", err)
		}
	})

	t.Run("Overwrite_ByProducer", func(t *testing.T) {
		fresh := []byte("wheel bytes v2")
		if _, err := store.Upload(ctx, "wheel", fresh, "build"); err != nil {
			t.Fatalf("unexpected re-upload error: %v", err)
		}
		art, err := store.Download(ctx, "wheel")
		if err != nil {
			t.Fatalf("unexpected download error: %v", err)
		}
		if string(art.Content) != string(fresh) {
			t.Errorf("expected overwritten content, got %q", art.Content)
		}
	})

	t.Run("List_Sorted", func(t *testing.T) {
		if _, err := store.Upload(ctx, "sdist", []byte("sdist bytes"), "build"); err != nil {
			t.Fatalf("unexpected upload error: %v", err)
		}
		infos, err := store.List(ctx)
		if err != nil {
			t.Fatalf("unexpected list error: %v", err)
		}
		if len(infos) < 2 {
			t.Fatalf("expected at least 2 artifacts, got %d", len(infos))
		}
		for i := 1; i < len(infos); i++ {
			if infos[i-1].Name > infos[i].Name {
				t.Errorf("list not sorted: %q before %q", infos[i-1].Name, infos[i].Name)
			}
		}
	})
}
