package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// ExpiryPolicy says how old a pending request or an active session may get.
// A zero duration disables that half of the sweep.
type ExpiryPolicy struct {
	PendingTTL    time.Duration
	SessionMaxAge time.Duration
	Interval      time.Duration
}

// Enabled reports whether the sweep has anything to do.
func (p ExpiryPolicy) Enabled() bool {
	return p.Interval > 0 && (p.PendingTTL > 0 || p.SessionMaxAge > 0)
}

// Sweeper periodically applies an ExpiryPolicy through the coordinator.
type Sweeper struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	coord     *Coordinator
	policy    ExpiryPolicy
	logger    *zap.Logger
	now       func() time.Time
	running   bool
}

func NewSweeper(coord *Coordinator, policy ExpiryPolicy, logger *zap.Logger) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Sweeper{
		scheduler: scheduler,
		coord:     coord,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the sweep job. It is a no-op when the policy is disabled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("sweeper is already running")
	}
	if !s.policy.Enabled() {
		s.logger.Info("expiry sweep disabled")
		return nil
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.policy.Interval),
		gocron.NewTask(func() {
			s.Sweep(ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create expiry job: %w", err)
	}

	s.scheduler.Start()
	s.running = true

	s.logger.Info("expiry sweep started",
		zap.Duration("interval", s.policy.Interval),
		zap.Duration("pending_ttl", s.policy.PendingTTL),
		zap.Duration("session_max_age", s.policy.SessionMaxAge),
	)
	return nil
}

// Sweep runs one pass and returns the number of frames it produced.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := s.now()

	var pendingCutoff, sessionCutoff time.Time
	if s.policy.PendingTTL > 0 {
		pendingCutoff = now.Add(-s.policy.PendingTTL)
	}
	if s.policy.SessionMaxAge > 0 {
		sessionCutoff = now.Add(-s.policy.SessionMaxAge)
	}

	out := s.coord.Expire(ctx, pendingCutoff, sessionCutoff)
	if len(out) > 0 {
		s.logger.Debug("expiry sweep delivered frames", zap.Int("frames", len(out)))
	}
	return len(out)
}

// Stop shuts the scheduler down. It is a no-op when the sweep never started.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	s.running = false
	return nil
}
