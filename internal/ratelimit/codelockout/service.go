// Package codelockout throttles security-code guessing. Timing padding hides
// whether a guess hit; this service caps how many misses a terminal can make
// at all. It is a brake, not an authorization control: on infrastructure
// failure it fails open so legitimate check-outs keep working.
package codelockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Defaults tuned for a 4-6 character code space: far below any feasible
// brute-force rate, far above any plausible staff typo streak.
const (
	DefaultThreshold = 15
	DefaultWindow    = 10 * time.Minute
	DefaultLockFor   = 15 * time.Minute
)

// Counter is the backing state contract. The production implementation is
// Redis; tests use the in-memory one.
type Counter interface {
	// IncrMiss bumps the miss count for key within the rolling window and
	// returns the new count.
	IncrMiss(ctx context.Context, key string, window time.Duration) (int64, error)
	// SetLock marks key locked for ttl.
	SetLock(ctx context.Context, key string, ttl time.Duration) error
	// IsLocked reports whether key is currently locked.
	IsLocked(ctx context.Context, key string) (bool, error)
}

// Service applies the threshold policy over a Counter.
type Service struct {
	counter   Counter
	threshold int64
	window    time.Duration
	lockFor   time.Duration
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPolicy overrides the threshold/window/lock durations.
func WithPolicy(threshold int, window, lockFor time.Duration) Option {
	return func(s *Service) {
		s.threshold = int64(threshold)
		s.window = window
		s.lockFor = lockFor
	}
}

// New constructs a Service. A nil counter yields a disabled service that
// always allows; callers need no nil checks.
func New(counter Counter, opts ...Option) *Service {
	s := &Service{
		counter:   counter,
		threshold: DefaultThreshold,
		window:    DefaultWindow,
		lockFor:   DefaultLockFor,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allowed reports whether the terminal may attempt a code lookup. Counter
// errors fail open with a warning.
func (s *Service) Allowed(ctx context.Context, terminal string) bool {
	if s.counter == nil || terminal == "" {
		return true
	}
	locked, err := s.counter.IsLocked(ctx, lockKey(terminal))
	if err != nil {
		s.warn(ctx, "code lockout check failed, failing open", err)
		return true
	}
	return !locked
}

// RecordMiss counts one failed code lookup and returns true when this miss
// tripped the lockout.
func (s *Service) RecordMiss(ctx context.Context, terminal string) bool {
	if s.counter == nil || terminal == "" {
		return false
	}
	count, err := s.counter.IncrMiss(ctx, missKey(terminal), s.window)
	if err != nil {
		s.warn(ctx, "code miss count failed, failing open", err)
		return false
	}
	if count < s.threshold {
		return false
	}
	if err := s.counter.SetLock(ctx, lockKey(terminal), s.lockFor); err != nil {
		s.warn(ctx, "code lockout set failed, failing open", err)
		return false
	}
	return true
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, "error", err)
	}
}

func missKey(terminal string) string {
	return fmt.Sprintf("codelockout:miss:%s", terminal)
}

func lockKey(terminal string) string {
	return fmt.Sprintf("codelockout:lock:%s", terminal)
}
