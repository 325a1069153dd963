package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/api/dto"
	"github.com/spec-kit/provisioning-service/internal/browser"
	"github.com/spec-kit/provisioning-service/internal/domain"
	"github.com/spec-kit/provisioning-service/internal/events"
	"github.com/spec-kit/provisioning-service/internal/persistence"
	"github.com/spec-kit/provisioning-service/internal/repository"
	"github.com/spec-kit/provisioning-service/internal/workflow"
	apperrors "github.com/spec-kit/provisioning-service/pkg/util/errorutil"
)

const lockKeyPrefix = "provision:lock:"

// ErrProvisioningFailed is returned when the workflow ran but did not create both records.
var ErrProvisioningFailed = errors.New("provisioning workflow failed")

// Runner executes the browser workflow.
type Runner interface {
	Run(ctx context.Context, in workflow.Input) (workflow.Result, error)
}

// Locker guards against two runs for the same user at once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error)
}

// RequestValidator checks a request before any browser work.
type RequestValidator interface {
	Validate(req dto.ProvisionRequest) error
}

// RoleResolver maps a custom role name to its upstream identifier.
type RoleResolver interface {
	Resolve(name string) (string, bool)
}

// OutcomeRecorder counts finished runs.
type OutcomeRecorder interface {
	RecordProvisioning(status domain.RunStatus, state string, duration time.Duration)
}

// ProvisioningService validates requests, runs the workflow and records the outcome.
type ProvisioningService struct {
	validator  RequestValidator
	roles      RoleResolver
	runner     Runner
	runs       repository.RunRepository
	locker     Locker
	lockTTL    time.Duration
	dispatcher events.Dispatcher
	metrics    OutcomeRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// ProvisioningDependencies bundles collaborators for the provisioning service.
type ProvisioningDependencies struct {
	Validator  RequestValidator
	Roles      RoleResolver
	Runner     Runner
	Runs       repository.RunRepository
	Locker     Locker
	LockTTL    time.Duration
	Dispatcher events.Dispatcher
	Metrics    OutcomeRecorder
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewProvisioningService constructs the service.
func NewProvisioningService(deps ProvisioningDependencies) *ProvisioningService {
	s := &ProvisioningService{
		validator:  deps.Validator,
		roles:      deps.Roles,
		runner:     deps.Runner,
		runs:       deps.Runs,
		locker:     deps.Locker,
		lockTTL:    deps.LockTTL,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.runs == nil {
		s.runs = repository.NewMemoryRunRepository()
	}
	return s
}

// Provision creates the user and then the employee upstream.
//
// Validation problems come back as validation.Errors and nothing else
// happens. Otherwise a run record is always returned; a failed workflow yields
// ErrProvisioningFailed, a busy browser pool a 503 DomainError and a
// concurrent request for the same user a 409 DomainError.
func (s *ProvisioningService) Provision(ctx context.Context, requestID string, req dto.ProvisionRequest) (*domain.ProvisioningRun, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user := req.User.ToDomain()
	employee := req.Employee.ToDomain()
	roleID, _ := s.roles.Resolve(user.CustomRole)

	if s.locker != nil {
		unlock, err := s.locker.TryLock(ctx, lockKeyPrefix+strings.ToLower(user.Email), s.lockTTL)
		if err != nil {
			if errors.Is(err, persistence.ErrLocked) {
				return nil, apperrors.NewConflict("a provisioning run for this user is already in progress", map[string]any{"email": user.Email})
			}
			return nil, apperrors.NewInternalError(err)
		}
		defer unlock(context.WithoutCancel(ctx))
	}

	run := &domain.ProvisioningRun{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		UserEmail:  user.Email,
		EmployeeID: employee.EmployeeID,
		Status:     domain.RunStatusRunning,
		State:      string(workflow.StateIdle),
		StartedAt:  s.now(),
	}
	log := s.logger.With(zap.String("run_id", run.ID), zap.String("request_id", requestID))
	if err := s.runs.Create(ctx, run); err != nil {
		log.Warn("run audit record not created", zap.Error(err))
	}

	res, runErr := s.runner.Run(ctx, workflow.Input{
		RunID:        run.ID,
		User:         user,
		Employee:     employee,
		CustomRoleID: roleID,
	})
	run.ScreenshotKey = res.ScreenshotKey

	status := domain.RunStatusSucceeded
	if runErr != nil {
		status = domain.RunStatusFailed
		log.Error("provisioning failed",
			zap.String("state", string(res.State)),
			zap.String("reached", string(res.Reached)),
			zap.Error(runErr))
	}
	run.Finish(status, string(res.State), runErr, s.now())

	// The caller may have gone away; the audit and event still describe what happened.
	recordCtx := context.WithoutCancel(ctx)
	if err := s.runs.Update(recordCtx, run); err != nil {
		log.Warn("run audit record not updated", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordProvisioning(status, run.State, run.FinishedAt.Sub(run.StartedAt))
	}
	s.publishOutcome(recordCtx, run, log)

	if runErr == nil {
		return run, nil
	}
	if errors.Is(runErr, browser.ErrCapacity) {
		return run, apperrors.NewUnavailable("browser capacity exhausted, retry later", runErr)
	}
	return run, errors.Join(ErrProvisioningFailed, runErr)
}

// GetRun returns the audit record of a run.
func (s *ProvisioningService) GetRun(ctx context.Context, id string) (*domain.ProvisioningRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("provisioning run", map[string]any{"id": id})
	}
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return run, nil
}

func (s *ProvisioningService) publishOutcome(ctx context.Context, run *domain.ProvisioningRun, log *zap.Logger) {
	if s.dispatcher == nil {
		return
	}
	eventType := events.EventProvisioningSucceeded
	if run.Status != domain.RunStatusSucceeded {
		eventType = events.EventProvisioningFailed
	}
	err := s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     run.ID,
		Timestamp: s.now(),
		Payload: events.ProvisioningOutcomePayload{
			UserEmail:     run.UserEmail,
			EmployeeID:    run.EmployeeID,
			State:         run.State,
			Error:         run.Error,
			ScreenshotKey: run.ScreenshotKey,
		},
	})
	if err != nil {
		log.Warn("outcome event delivery failed", zap.Error(err))
	}
}
