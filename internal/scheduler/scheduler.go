// Package scheduler provides the debounced sync trigger for the pending
// clip queue. Multiple arm requests coalesce into a single one-shot timer;
// at most one flush is ever pending.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler arms a delayed, coalesced flush of the pending queue.
type Scheduler struct {
	mu      sync.Mutex
	armed   bool
	stopped bool
	timer   *time.Timer

	delay  time.Duration
	flush  func(ctx context.Context)
	logger *slog.Logger
}

// New creates a Scheduler firing after delay. The flush callback is wired
// afterward via OnFire, because the flushing service itself needs the
// scheduler to re-arm.
func New(delay time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		delay:  delay,
		logger: logger.With("component", "sync_scheduler"),
	}
}

// OnFire registers the callback invoked when the timer fires. Must be
// called once, before the first Arm.
func (s *Scheduler) OnFire(flush func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush = flush
}

// Arm schedules a flush after the configured delay. Arming while a flush is
// already pending is a no-op, so bursts of triggers collapse into one.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.armed || s.stopped {
		return
	}
	s.armed = true
	s.timer = time.AfterFunc(s.delay, s.fire)
	s.logger.Debug("sync armed", "delay", s.delay)
}

// Armed reports whether a flush is currently pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// Recover re-arms at startup when clips are already pending. Timer state is
// not persisted; re-checking the queue makes recovery idempotent.
func (s *Scheduler) Recover(pending int) {
	if pending == 0 {
		return
	}
	s.logger.Info("pending clips found at startup, arming sync", "count", pending)
	s.Arm()
}

// Stop cancels any pending flush. Further Arm calls are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.armed = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// fire runs when the timer elapses. The armed flag is cleared before the
// flush is invoked, so a flush that discovers remaining clips can re-arm
// without being blocked by its own stale flag.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.armed = false
	s.timer = nil
	flush := s.flush
	s.mu.Unlock()

	if flush == nil {
		s.logger.Error("sync fired with no flush callback registered")
		return
	}

	s.logger.Debug("sync fired")
	flush(context.Background())
}
