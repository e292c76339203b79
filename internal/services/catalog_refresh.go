package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// CatalogRefreshService periodically re-runs the catalog refresh function
// (page 1 of the active category). The store's merge protocol makes the
// refresh safe: user state and local entries survive it.
type CatalogRefreshService struct {
	interval time.Duration
	refresh  func(context.Context) error

	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once

	mu          sync.Mutex
	lastRefresh time.Time
	isRunning   bool
}

// RefreshStatus reports the scheduler state.
type RefreshStatus struct {
	LastRefresh time.Time `json:"last_refresh"`
	IsRunning   bool      `json:"is_running"`
}

func NewCatalogRefreshService(interval time.Duration, refresh func(context.Context) error) *CatalogRefreshService {
	return &CatalogRefreshService{
		interval: interval,
		refresh:  refresh,
		stopChan: make(chan struct{}),
	}
}

// StartScheduler starts the periodic refresh. A non-positive interval
// disables scheduling entirely.
func (s *CatalogRefreshService) StartScheduler(ctx context.Context) {
	if s.interval <= 0 {
		log.Info().Msg("catalog refresh scheduler disabled")
		return
	}

	log.Info().Dur("interval", s.interval).Msg("starting catalog refresh scheduler")
	s.ticker = time.NewTicker(s.interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.runRefresh(ctx)
			case <-s.stopChan:
				log.Info().Msg("catalog refresh scheduler stopped")
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the scheduler.
func (s *CatalogRefreshService) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// ManualRefresh triggers a refresh outside the schedule.
func (s *CatalogRefreshService) ManualRefresh(ctx context.Context) error {
	return s.runRefresh(ctx)
}

// Status returns the last refresh time and whether a refresh is in progress.
func (s *CatalogRefreshService) Status() RefreshStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RefreshStatus{LastRefresh: s.lastRefresh, IsRunning: s.isRunning}
}

func (s *CatalogRefreshService) runRefresh(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	err := s.refresh(ctx)

	s.mu.Lock()
	s.isRunning = false
	if err == nil {
		s.lastRefresh = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("catalog refresh failed")
	}
	return err
}
