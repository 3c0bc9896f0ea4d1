package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task runs when its delay elapses. Implementations must be idempotent:
// deferred deletions fire unconditionally and the target may already be gone.
type Task func(ctx context.Context)

// Handle cancels a scheduled task.
type Handle struct {
	timer *time.Timer
	once  sync.Once
}

// Cancel stops the task if it has not fired yet.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.timer != nil {
			h.timer.Stop()
		}
	})
}

// Scheduler runs tasks after a fixed delay. Tasks are keyed so a later
// schedule for the same key replaces the earlier one.
type Scheduler struct {
	mu      sync.Mutex
	pending map[string]*Handle
	base    context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler whose tasks stop receiving a live context once
// Close is called.
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		pending: make(map[string]*Handle),
		base:    ctx,
		cancel:  cancel,
	}
}

// Schedule queues task to run after delay, replacing any pending task with
// the same key.
func (s *Scheduler) Schedule(key string, delay time.Duration, task Task) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[key]; ok {
		prev.Cancel()
	}

	handle := &Handle{}
	handle.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.pending[key] == handle {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		task(s.base)
	})
	s.pending[key] = handle
	return handle
}

// Close cancels every pending task.
func (s *Scheduler) Close() {
	s.mu.Lock()
	for key, handle := range s.pending {
		handle.Cancel()
		delete(s.pending, key)
	}
	s.mu.Unlock()
	s.cancel()
}
