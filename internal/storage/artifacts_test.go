package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/config"
)

func TestLocalStorePut(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	path, err := store.Put(context.Background(), "provisioning/run-1/authenticate.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if path != filepath.Join(dir, "provisioning", "run-1", "authenticate.png") {
		t.Fatalf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "png" {
		t.Fatalf("read back: %q %v", data, err)
	}
}

func TestLocalStoreStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	path, err := NewLocalStore(dir).Put(context.Background(), "../../etc/passwd", "text/plain", []byte("x"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "etc") {
		t.Fatalf("path escaped artifact dir: %s", path)
	}
}

func TestNewArtifactStoreDisabled(t *testing.T) {
	store, err := NewArtifactStore(context.Background(), config.ArtifactsConfig{}, zap.NewNop())
	if err != nil || store != nil {
		t.Fatalf("expected nil store, got %v %v", store, err)
	}
}

func TestNewArtifactStoreLocal(t *testing.T) {
	store, err := NewArtifactStore(context.Background(), config.ArtifactsConfig{LocalDir: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok := store.(*LocalStore); !ok {
		t.Fatalf("expected local store, got %T", store)
	}
}
