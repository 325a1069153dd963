package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/config"
)

func TestDisabledRedisGrantsLocks(t *testing.T) {
	r := NewRedis(config.RedisConfig{}, zap.NewNop())
	for i := 0; i < 2; i++ {
		unlock, err := r.TryLock(context.Background(), "provision:lock:a@b.c", time.Minute)
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		unlock(context.Background())
	}
	if err := r.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDisabledPostgres(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("new postgres: %v", err)
	}
	if pg.Enabled() || pg.PoolHandle() != nil {
		t.Fatalf("expected disabled postgres")
	}
	if err := pg.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := RunMigrations(context.Background(), nil, zap.NewNop()); err != nil {
		t.Fatalf("migrations without pool: %v", err)
	}
	pg.Close()
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	data, err := migrationFiles.ReadFile("migrations/001_create_provisioning_runs.sql")
	if err != nil || len(data) == 0 {
		t.Fatalf("expected embedded migration, got %v", err)
	}
}

func TestMigrationVersionsSorted(t *testing.T) {
	versions, err := migrationVersions()
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(versions) == 0 || versions[0] != "001_create_provisioning_runs" {
		t.Fatalf("unexpected versions %v", versions)
	}
}

func TestPoolConfigOverrides(t *testing.T) {
	cfg, err := poolConfig(config.PostgresConfig{
		DSN:            "postgres://u:p@localhost:5432/runs",
		MaxConns:       7,
		MinConns:       1,
		ConnMaxIdleSec: 10,
	})
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	if cfg.MaxConns != 7 || cfg.MinConns != 1 || cfg.MaxConnIdleTime != 10*time.Second {
		t.Fatalf("overrides not applied: %d %d %v", cfg.MaxConns, cfg.MinConns, cfg.MaxConnIdleTime)
	}
}
