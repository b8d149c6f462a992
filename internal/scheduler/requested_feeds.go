package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/pureclarity/feedsync/internal/runstate"
	"github.com/robfig/cron/v3"
)

// FeedDispatcher hands a consumed feed request off for execution, typically
// to the background task queue.
type FeedDispatcher interface {
	DispatchFeedRun(storeID int, feedTypes []string) error
}

// RequestedFeedScheduler polls the persisted requested sets and executes
// them. Each consumed request runs exactly once: the set is deleted before
// the run is dispatched.
type RequestedFeedScheduler struct {
	tracker   *runstate.Tracker
	runner    *feed.Runner
	queue     FeedDispatcher // nil runs requests inline
	schedules config.Schedules

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

func NewRequestedFeedScheduler(tracker *runstate.Tracker, runner *feed.Runner, queue FeedDispatcher, schedules config.Schedules) *RequestedFeedScheduler {
	return &RequestedFeedScheduler{
		tracker:   tracker,
		runner:    runner,
		queue:     queue,
		schedules: schedules,
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins polling for requested feeds
func (s *RequestedFeedScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedules.RequestedSchedule, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid requested feed schedule '%s': %w", s.schedules.RequestedSchedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Requested feed scheduler: started with schedule '%s'", s.schedules.RequestedSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *RequestedFeedScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Requested feed scheduler: stopped")
}

// RunNow triggers an immediate poll
func (s *RequestedFeedScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *RequestedFeedScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// runSync consumes every store's requested set and dispatches it.
func (s *RequestedFeedScheduler) runSync() {
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

	for _, storeID := range s.tracker.RequestedStores() {
		feedTypes := s.tracker.TakeRequestedFeeds(storeID)
		if len(feedTypes) == 0 {
			continue
		}

		log.Printf("Requested feeds: dispatching %v for store %d", feedTypes, storeID)

		if s.queue != nil {
			if err := s.queue.DispatchFeedRun(storeID, feedTypes); err != nil {
				log.Printf("Requested feeds: failed to queue run for store %d: %v", storeID, err)
				// Put the request back so the next poll retries it.
				s.tracker.AddRequestedFeeds(storeID, feedTypes)
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
		if err := s.runner.SelectedFeeds(ctx, storeID, feedTypes); err != nil {
			log.Printf("Requested feeds: run failed for store %d: %v", storeID, err)
		}
		cancel()
	}
}
