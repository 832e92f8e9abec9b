// Package scheduler runs periodic maintenance for the label service.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes print jobs older than a retention age
type Sweeper interface {
	SweepExpired(ctx context.Context, age time.Duration) (int64, error)
}

// RetentionSchedulerConfig holds configuration for the retention sweeper
type RetentionSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Retention is how long print jobs are kept
	Retention time.Duration

	// Interval is the time between sweeps
	Interval time.Duration

	// Timeout is the maximum time for a sweep
	Timeout time.Duration
}

// DefaultRetentionSchedulerConfig returns default configuration. Jobs are
// kept forever unless retention is switched on.
func DefaultRetentionSchedulerConfig() RetentionSchedulerConfig {
	return RetentionSchedulerConfig{
		Enabled:   false,
		Retention: 30 * 24 * time.Hour,
		Interval:  time.Hour,
		Timeout:   5 * time.Minute,
	}
}

// Validate checks the configuration of an enabled scheduler
func (c RetentionSchedulerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", ErrInvalidConfig)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// RetentionScheduler periodically removes expired print jobs
type RetentionScheduler struct {
	sweeper   Sweeper
	logger    *zap.Logger
	config    RetentionSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewRetentionScheduler creates a new retention scheduler
func NewRetentionScheduler(sweeper Sweeper, logger *zap.Logger, config RetentionSchedulerConfig) *RetentionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRetentionSchedulerConfig().Timeout
	}
	return &RetentionScheduler{
		sweeper: sweeper,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop. A disabled scheduler does nothing.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Retention scheduler is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Retention scheduler started",
		zap.Duration("retention", s.config.Retention),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *RetentionScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Retention scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Retention scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *RetentionScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Retention loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	deleted, err := s.sweeper.SweepExpired(sweepCtx, s.config.Retention)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Print job retention sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Print job retention sweep completed",
		zap.Duration("duration", duration),
		zap.Int64("deleted_count", deleted),
	)
}

// TriggerImmediateSweep runs one sweep in the background
func (s *RetentionScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
