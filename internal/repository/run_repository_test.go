package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/provisioning-service/internal/domain"
)

func TestMemoryRunRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryRunRepository()
	ctx := context.Background()
	run := &domain.ProvisioningRun{
		ID:         "run-1",
		UserEmail:  "john@example.com",
		EmployeeID: "1042",
		Status:     domain.RunStatusRunning,
		State:      "IDLE",
		StartedAt:  time.Now(),
	}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}
	run.Finish(domain.RunStatusFailed, "ABORTED", errors.New("boom"), time.Now())
	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RunStatusFailed || got.Error != "boom" || got.FinishedAt == nil {
		t.Fatalf("unexpected run %+v", got)
	}
}

func TestMemoryRunRepositoryNotFound(t *testing.T) {
	repo := NewMemoryRunRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if err := repo.Update(context.Background(), &domain.ProvisioningRun{ID: "missing"}); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows on update, got %v", err)
	}
}
