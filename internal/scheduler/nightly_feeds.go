package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/robfig/cron/v3"
)

// NightlyFeedScheduler runs the full feed set for every active store on a
// cron schedule.
type NightlyFeedScheduler struct {
	db        *database.Database
	runner    *feed.Runner
	schedules config.Schedules

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

func NewNightlyFeedScheduler(db *database.Database, runner *feed.Runner, schedules config.Schedules) *NightlyFeedScheduler {
	return &NightlyFeedScheduler{
		db:        db,
		runner:    runner,
		schedules: schedules,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if nightly feeds are enabled
func (s *NightlyFeedScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.schedules.NightlyEnabled {
		log.Printf("Nightly feed scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedules.NightlySchedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid nightly feed schedule '%s': %w", s.schedules.NightlySchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Nightly feed scheduler: started with schedule '%s'", s.schedules.NightlySchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *NightlyFeedScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Nightly feed scheduler: stopped")
}

// RunNow triggers an immediate full feed run
func (s *NightlyFeedScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *NightlyFeedScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// IsSyncing returns whether a feed run is currently in progress
func (s *NightlyFeedScheduler) IsSyncing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSyncing
}

// GetNextRunTime returns when the next full run will occur
func (s *NightlyFeedScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	for _, entry := range entries {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runSync runs every feed type for every active store. One store's failure
// does not stop the rest.
func (s *NightlyFeedScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
		log.Printf("Nightly feeds: skipped (already running)")
		return
	}
	s.isSyncing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSyncing = false
		s.mu.Unlock()
	}()

	stores, err := s.db.GetActiveStores()
	if err != nil {
		log.Printf("Nightly feeds: failed to list stores: %v", err)
		return
	}

	if len(stores) == 0 {
		log.Printf("Nightly feeds: no active stores")
		return
	}

	log.Printf("Nightly feeds: starting full run for %d stores", len(stores))
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	for _, store := range stores {
		if err := s.runner.AllFeeds(ctx, store.ID); err != nil {
			log.Printf("Nightly feeds: run failed for store %d: %v", store.ID, err)
		}
	}

	log.Printf("Nightly feeds: finished in %v", time.Since(startTime).Round(time.Millisecond))
}
