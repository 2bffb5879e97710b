package scheduler

import (
	"context"
	"sync"
	"time"

	"ReviewScanner/internal/ports"
)

const defaultInterval = 24 * time.Hour

// IntervalScheduler runs a job immediately and then every interval.
type IntervalScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler uses a daily interval when interval is not positive.
func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &IntervalScheduler{interval: interval}
}

// Interval returns the effective tick period.
func (s *IntervalScheduler) Interval() time.Duration {
	return s.interval
}

// Start launches the ticking goroutine; a second Start is a no-op.
// Runs never overlap: a tick that fires during a run is dropped.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		job(time.Now())
		for {
			select {
			case t := <-ticker.C:
				job(t)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the goroutine and waits for a running job to return.
func (s *IntervalScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the current run loop exits; nil when not started.
func (s *IntervalScheduler) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
