package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrCapacity is returned when no session slot frees up within the admission wait.
var ErrCapacity = errors.New("browser session capacity exhausted")

// Pool caps the number of live sessions. Sessions are never reused: every
// Acquire launches a new browser and Close tears it down.
type Pool struct {
	launcher Launcher
	sem      *semaphore.Weighted
	size     int64
	wait     time.Duration
	inUse    atomic.Int64
	logger   *zap.Logger
}

// NewPool builds a pool allowing at most size concurrent sessions. A zero
// wait means callers queue until ctx is done.
func NewPool(launcher Launcher, size int, wait time.Duration, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		launcher: launcher,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     int64(size),
		wait:     wait,
		logger:   logger,
	}
}

// Acquire waits for a free slot and launches a session in it.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	waitCtx := ctx
	if p.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.wait)
		defer cancel()
	}
	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %d sessions busy", ErrCapacity, p.size)
	}

	session, err := p.launcher.Launch(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	p.inUse.Add(1)
	p.logger.Debug("browser session acquired", zap.Int64("in_use", p.inUse.Load()))
	return &pooledSession{Session: session, pool: p}, nil
}

// InUse reports live sessions.
func (p *Pool) InUse() int64 { return p.inUse.Load() }

// Size reports the session cap.
func (p *Pool) Size() int64 { return p.size }

type pooledSession struct {
	Session
	pool *Pool
	once sync.Once
	err  error
}

// Close releases the browser and frees the slot; later calls are no-ops.
func (s *pooledSession) Close() error {
	s.once.Do(func() {
		s.err = s.Session.Close()
		s.pool.inUse.Add(-1)
		s.pool.sem.Release(1)
		s.pool.logger.Debug("browser session released", zap.Int64("in_use", s.pool.inUse.Load()), zap.Error(s.err))
	})
	return s.err
}
