package scheduler

import (
	"context"
	"sync"
	"time"

	"stitch/internal/service"
	"stitch/pkg/logger"
)

// Scheduler refetches every registered fragment on an interval to keep the
// cache warm.
type Scheduler struct {
	fragments  service.FragmentService
	interval   time.Duration
	stopCh     chan struct{}
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current refresh operation
	mu         sync.Mutex         // protects cancelFunc
}

func New(fragments service.FragmentService, interval time.Duration) *Scheduler {
	return &Scheduler{
		fragments: fragments,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "interval", s.interval)
}

func (s *Scheduler) Stop() {
	// Cancel any ongoing refresh operation first
	s.mu.Lock()
	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.refresh()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) refresh() {
	// Use the same timeout as the refresh interval
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	// Store cancel function so Stop() can cancel ongoing refresh
	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	logger.Info("starting scheduled fragment refresh")
	if err := s.fragments.RefreshAll(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("scheduled refresh cancelled")
			return
		}
		logger.Error("scheduled refresh", "error", err)
	}
	logger.Info("scheduled fragment refresh completed")
}
