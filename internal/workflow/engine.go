// Package workflow drives the upstream bodyshop UI to create a user and an
// employee. The run is a fixed sequence of phases; each ends by checking the
// rendered page for a success marker, and the first failure aborts the rest.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/provisioning-service/internal/browser"
	"github.com/spec-kit/provisioning-service/internal/domain"
)

const screenshotTimeout = 15 * time.Second

// SessionSource hands out exclusive browser sessions.
type SessionSource interface {
	Acquire(ctx context.Context) (browser.Session, error)
}

// ArtifactStore keeps failure screenshots.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Config carries the upstream coordinates and operator credentials.
type Config struct {
	LoginURL           string
	EmployeeCreateURL  string
	LoginEmail         string
	LoginPassword      string
	MSOEntryText       string
	MSOLinkName        string
	MarkerTimeout      time.Duration
	MarkerPollInterval time.Duration
}

// Input is one validated provisioning request.
type Input struct {
	RunID        string
	User         domain.UserRecord
	Employee     domain.EmployeeRecord
	CustomRoleID string
}

// Result describes where a run ended.
type Result struct {
	State         State
	Reached       State
	History       []State
	ScreenshotKey string
}

// Engine executes provisioning runs. It holds no per-run state and is safe
// for concurrent use; each Run gets its own browser session.
type Engine struct {
	cfg       Config
	sessions  SessionSource
	sleeper   Sleeper
	artifacts ArtifactStore
	logger    *zap.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSleeper replaces the real-time sleeper.
func WithSleeper(s Sleeper) Option {
	return func(e *Engine) { e.sleeper = s }
}

// WithArtifacts enables failure screenshots.
func WithArtifacts(store ArtifactStore) Option {
	return func(e *Engine) { e.artifacts = store }
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine builds an engine.
func NewEngine(cfg Config, sessions SessionSource, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		sessions: sessions,
		sleeper:  timeSleeper{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run acquires a session, executes every phase in order and always releases
// the session before returning. A nil error means both records exist upstream.
func (e *Engine) Run(ctx context.Context, in Input) (res Result, err error) {
	log := e.logger.With(zap.String("run_id", in.RunID))
	m := newMachine()

	session, err := e.sessions.Acquire(ctx)
	if err != nil {
		_ = m.advance(StateAborted)
		return Result{State: StateAborted, Reached: StateIdle, History: m.snapshot()}, fmt.Errorf("acquire browser session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Error("browser session release failed", zap.Error(cerr))
			err = errors.Join(err, fmt.Errorf("release browser session: %w", cerr))
		}
		if err != nil {
			_ = m.advance(StateAborted)
		} else if aerr := m.advance(StateClosed); aerr != nil {
			err = aerr
		}
		res.State = m.current()
		res.Reached = m.lastProgress()
		res.History = m.snapshot()
		log.Info("workflow finished", zap.String("state", string(res.State)), zap.String("reached", string(res.Reached)))
	}()

	page := session.Page()
	d := &driver{
		ctx:          ctx,
		page:         page,
		sleeper:      e.sleeper,
		markerPolls:  e.markerPolls(),
		pollInterval: e.cfg.MarkerPollInterval,
	}

	for _, ph := range e.phases() {
		if err := m.advance(ph.enter); err != nil {
			return res, err
		}
		log.Info("phase started", zap.String("phase", string(ph.name)))
		ph.run(d, in)
		if d.err != nil {
			log.Error("phase failed", zap.String("phase", string(ph.name)), zap.Error(d.err))
			res.ScreenshotKey = e.captureFailure(ctx, page, in.RunID, ph.name, log)
			return res, &PhaseError{Phase: ph.name, State: m.current(), Err: d.err}
		}
		if err := m.advance(ph.done); err != nil {
			return res, err
		}
		log.Info("phase completed", zap.String("phase", string(ph.name)), zap.String("state", string(ph.done)))
	}
	return res, nil
}

func (e *Engine) markerPolls() int {
	if e.cfg.MarkerTimeout <= 0 || e.cfg.MarkerPollInterval <= 0 {
		return 1
	}
	return int(e.cfg.MarkerTimeout/e.cfg.MarkerPollInterval) + 1
}

// captureFailure stores a best-effort screenshot and returns its key.
func (e *Engine) captureFailure(ctx context.Context, page browser.Page, runID string, ph Phase, log *zap.Logger) string {
	if e.artifacts == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), screenshotTimeout)
	defer cancel()

	shot, err := page.Screenshot(ctx)
	if err != nil {
		log.Warn("failure screenshot not captured", zap.Error(err))
		return ""
	}
	key, err := e.artifacts.Put(ctx, fmt.Sprintf("provisioning/%s/%s.png", runID, ph), "image/png", shot)
	if err != nil {
		log.Warn("failure screenshot not stored", zap.Error(err))
		return ""
	}
	log.Info("failure screenshot stored", zap.String("key", key))
	return key
}
