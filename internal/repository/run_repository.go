package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/provisioning-service/internal/domain"
)

// RunRepository defines persistence access for provisioning run audit records.
type RunRepository interface {
	Create(ctx context.Context, run *domain.ProvisioningRun) error
	Update(ctx context.Context, run *domain.ProvisioningRun) error
	GetByID(ctx context.Context, id string) (*domain.ProvisioningRun, error)
}

type runRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository returns a Postgres-backed implementation.
func NewRunRepository(pool *pgxpool.Pool) RunRepository {
	return &runRepository{pool: pool}
}

func (r *runRepository) Create(ctx context.Context, run *domain.ProvisioningRun) error {
	const query = `
        INSERT INTO provisioning_runs (id, request_id, user_email, employee_id, status, state, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.RequestID,
		run.UserEmail,
		run.EmployeeID,
		run.Status,
		run.State,
		run.StartedAt,
	)
	return err
}

func (r *runRepository) Update(ctx context.Context, run *domain.ProvisioningRun) error {
	const query = `
        UPDATE provisioning_runs
        SET status=$1, state=$2, error=$3, screenshot_key=$4, finished_at=$5
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		run.Status,
		run.State,
		run.Error,
		run.ScreenshotKey,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*domain.ProvisioningRun, error) {
	const query = `
        SELECT id, request_id, user_email, employee_id, status, state, error, screenshot_key, started_at, finished_at
        FROM provisioning_runs WHERE id=$1`

	var run domain.ProvisioningRun
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.RequestID,
		&run.UserEmail,
		&run.EmployeeID,
		&run.Status,
		&run.State,
		&run.Error,
		&run.ScreenshotKey,
		&run.StartedAt,
		&run.FinishedAt,
	); err != nil {
		return nil, err
	}
	return &run, nil
}

type memoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]domain.ProvisioningRun
}

// NewMemoryRunRepository keeps runs in process memory; used when no database is configured.
func NewMemoryRunRepository() RunRepository {
	return &memoryRunRepository{runs: make(map[string]domain.ProvisioningRun)}
}

func (r *memoryRunRepository) Create(_ context.Context, run *domain.ProvisioningRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRunRepository) Update(_ context.Context, run *domain.ProvisioningRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.runs[run.ID] = *run
	return nil
}

func (r *memoryRunRepository) GetByID(_ context.Context, id string) (*domain.ProvisioningRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &run, nil
}
