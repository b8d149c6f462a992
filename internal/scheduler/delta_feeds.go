package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/pureclarity/feedsync/internal/runstate"
	"github.com/robfig/cron/v3"
)

// DeltaFeedScheduler re-runs the product feed for stores whose catalog
// changed since the last successful product feed. Stores that never sent a
// product feed are left to the nightly full run.
type DeltaFeedScheduler struct {
	db        *database.Database
	catalog   *catalog.Catalog
	tracker   *runstate.Tracker
	runner    *feed.Runner
	schedules config.Schedules

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

func NewDeltaFeedScheduler(db *database.Database, cat *catalog.Catalog, tracker *runstate.Tracker, runner *feed.Runner, schedules config.Schedules) *DeltaFeedScheduler {
	return &DeltaFeedScheduler{
		db:        db,
		catalog:   cat,
		tracker:   tracker,
		runner:    runner,
		schedules: schedules,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if delta feeds are enabled
func (s *DeltaFeedScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.schedules.DeltaEnabled {
		log.Printf("Delta feed scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedules.DeltaSchedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid delta feed schedule '%s': %w", s.schedules.DeltaSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Delta feed scheduler: started with schedule '%s'", s.schedules.DeltaSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *DeltaFeedScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Delta feed scheduler: stopped")
}

// RunNow triggers an immediate delta check
func (s *DeltaFeedScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *DeltaFeedScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *DeltaFeedScheduler) runSync() {
	s.mu.Lock()
	if s.isSyncing {
		s.mu.Unlock()
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
		log.Printf("Delta feeds: failed to list stores: %v", err)
		return
	}

	for _, store := range stores {
		lastRun := s.tracker.GetLastRunDate(feed.TypeProduct, store.ID)
		if lastRun.IsZero() {
			continue
		}

		changed, err := s.catalog.CountProductsUpdatedSince(store.ID, lastRun)
		if err != nil {
			log.Printf("Delta feeds: failed to count changes for store %d: %v", store.ID, err)
			continue
		}
		if changed == 0 {
			continue
		}

		log.Printf("Delta feeds: %d products changed for store %d, re-running product feed", changed, store.ID)

		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		if err := s.runner.SelectedFeeds(ctx, store.ID, []string{feed.TypeProduct}); err != nil {
			log.Printf("Delta feeds: run failed for store %d: %v", store.ID, err)
		}
		cancel()
	}
}
