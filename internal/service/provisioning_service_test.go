package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/provisioning-service/internal/api/dto"
	"github.com/spec-kit/provisioning-service/internal/browser"
	"github.com/spec-kit/provisioning-service/internal/domain"
	"github.com/spec-kit/provisioning-service/internal/events"
	"github.com/spec-kit/provisioning-service/internal/persistence"
	"github.com/spec-kit/provisioning-service/internal/repository"
	"github.com/spec-kit/provisioning-service/internal/roles"
	"github.com/spec-kit/provisioning-service/internal/validation"
	"github.com/spec-kit/provisioning-service/internal/workflow"
	apperrors "github.com/spec-kit/provisioning-service/pkg/util/errorutil"
)

type fakeRunner struct {
	mu     sync.Mutex
	inputs []workflow.Input
	result workflow.Result
	err    error
}

func (r *fakeRunner) Run(_ context.Context, in workflow.Input) (workflow.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, in)
	return r.result, r.err
}

type fakeLocker struct {
	held     map[string]bool
	released []string
	err      error
}

func (l *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(context.Context), error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.held[key] {
		return nil, persistence.ErrLocked
	}
	l.held[key] = true
	return func(context.Context) {
		delete(l.held, key)
		l.released = append(l.released, key)
	}, nil
}

type fakeMetrics struct {
	statuses []domain.RunStatus
}

func (m *fakeMetrics) RecordProvisioning(status domain.RunStatus, _ string, _ time.Duration) {
	m.statuses = append(m.statuses, status)
}

type serviceFixture struct {
	svc     *ProvisioningService
	runner  *fakeRunner
	locker  *fakeLocker
	runs    repository.RunRepository
	metrics *fakeMetrics
	events  []events.Event
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		runner:  &fakeRunner{result: workflow.Result{State: workflow.StateClosed, Reached: workflow.StateEmployeeCreated}},
		locker:  &fakeLocker{held: map[string]bool{}},
		runs:    repository.NewMemoryRunRepository(),
		metrics: &fakeMetrics{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventProvisioningSucceeded, record)
	dispatcher.Subscribe(events.EventProvisioningFailed, record)

	resolver := roles.Default()
	f.svc = NewProvisioningService(ProvisioningDependencies{
		Validator:  validation.New(resolver),
		Roles:      resolver,
		Runner:     f.runner,
		Runs:       f.runs,
		Locker:     f.locker,
		LockTTL:    time.Minute,
		Dispatcher: dispatcher,
		Metrics:    f.metrics,
	})
	return f
}

func validRequest() dto.ProvisionRequest {
	return dto.ProvisionRequest{
		User: dto.UserPayload{
			Title:        "Mr",
			FirstName:    "Jane",
			LastName:     "Doe",
			Email:        "Jane@Example.com",
			Password:     "S3cret!",
			MainBodyshop: "Main Shop",
			CustomRole:   "Estimator",
		},
		Employee: dto.EmployeePayload{
			EmployeeID:   "1042",
			FirstName:    "Jane",
			LastName:     "Doe",
			Email:        "jane@example.com",
			Position:     "Estimator",
			Password:     "1234",
			MainBodyshop: "Main Shop",
		},
	}
}

func TestProvisionSuccess(t *testing.T) {
	f := newFixture(t)
	run, err := f.svc.Provision(context.Background(), "req-1", validRequest())
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if run.Status != domain.RunStatusSucceeded || run.State != string(workflow.StateClosed) {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatalf("expected finished timestamp")
	}
	if len(f.runner.inputs) != 1 {
		t.Fatalf("expected one workflow run, got %d", len(f.runner.inputs))
	}
	in := f.runner.inputs[0]
	if in.CustomRoleID != "56118ecc-05d4-11ea-af30-ac1f6b40676a" {
		t.Fatalf("unexpected role id %q", in.CustomRoleID)
	}
	if in.RunID != run.ID || in.Employee.EmployeeID != "1042" {
		t.Fatalf("unexpected workflow input %+v", in)
	}

	stored, err := f.svc.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if stored.Status != domain.RunStatusSucceeded || stored.RequestID != "req-1" {
		t.Fatalf("unexpected stored run %+v", stored)
	}
	if len(f.events) != 1 || f.events[0].Type != events.EventProvisioningSucceeded {
		t.Fatalf("expected one success event, got %+v", f.events)
	}
	if len(f.locker.released) != 1 || f.locker.released[0] != "provision:lock:jane@example.com" {
		t.Fatalf("expected lock released, got %v", f.locker.released)
	}
	if len(f.metrics.statuses) != 1 || f.metrics.statuses[0] != domain.RunStatusSucceeded {
		t.Fatalf("unexpected metrics %v", f.metrics.statuses)
	}
}

func TestProvisionValidationSkipsWorkflow(t *testing.T) {
	f := newFixture(t)
	req := validRequest()
	req.Employee.Password = "abc"

	run, err := f.svc.Provision(context.Background(), "req-2", req)
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if run != nil {
		t.Fatalf("expected no run for rejected input")
	}
	if len(f.runner.inputs) != 0 || len(f.events) != 0 || len(f.locker.released) != 0 {
		t.Fatalf("rejected input must not reach the workflow")
	}
}

func TestProvisionWorkflowFailure(t *testing.T) {
	f := newFixture(t)
	cause := &workflow.PhaseError{Phase: workflow.PhaseCreateEmployee, State: workflow.StateEmployeeCreating, Err: &workflow.MarkerError{Marker: workflow.MarkerEmployeeCreated}}
	f.runner.result = workflow.Result{State: workflow.StateAborted, Reached: workflow.StateUserCreated, ScreenshotKey: "gs://shots/x.png"}
	f.runner.err = cause

	run, err := f.svc.Provision(context.Background(), "req-3", validRequest())
	if !errors.Is(err, ErrProvisioningFailed) || !errors.Is(err, workflow.ErrMarkerMissing) {
		t.Fatalf("expected wrapped workflow failure, got %v", err)
	}
	if run == nil || run.Status != domain.RunStatusFailed || run.State != string(workflow.StateAborted) {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.ScreenshotKey != "gs://shots/x.png" || run.Error == "" {
		t.Fatalf("expected failure detail on run, got %+v", run)
	}
	if len(f.events) != 1 || f.events[0].Type != events.EventProvisioningFailed {
		t.Fatalf("expected one failure event, got %+v", f.events)
	}
	if len(f.runner.inputs) != 1 {
		t.Fatalf("failed runs must not be retried")
	}
}

func TestProvisionCapacityIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.runner.result = workflow.Result{State: workflow.StateAborted, Reached: workflow.StateIdle}
	f.runner.err = fmt.Errorf("acquire browser session: %w", browser.ErrCapacity)

	_, err := f.svc.Provision(context.Background(), "req-4", validRequest())
	if de := apperrors.ToDomainError(err); de.HTTPStatus != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%v)", de.HTTPStatus, err)
	}
}

func TestProvisionConcurrentSameUserConflicts(t *testing.T) {
	f := newFixture(t)
	f.locker.held["provision:lock:jane@example.com"] = true

	_, err := f.svc.Provision(context.Background(), "req-5", validRequest())
	if de := apperrors.ToDomainError(err); de.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%v)", de.HTTPStatus, err)
	}
	if len(f.runner.inputs) != 0 {
		t.Fatalf("locked request must not run")
	}
}

func TestGetRunUnknownID(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"not-a-uuid", "6f1c1f8e-4f1e-4c43-9a51-0a1b2c3d4e5f"} {
		_, err := f.svc.GetRun(context.Background(), id)
		if de := apperrors.ToDomainError(err); de.HTTPStatus != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", id, de.HTTPStatus)
		}
	}
}
