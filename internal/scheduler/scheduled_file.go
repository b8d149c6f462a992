package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/robfig/cron/v3"
)

// scheduledFeedFile is the drop file older integrations write to request a
// run. It is consumed (deleted) as soon as it is read.
const scheduledFeedFile = "scheduled_feed"

type scheduledFeedRequest struct {
	Store int      `json:"store"`
	Feeds []string `json:"feeds"`
}

// ScheduledFileScheduler watches the schedule directory for a drop file and
// runs the feeds it names.
type ScheduledFileScheduler struct {
	runner      *feed.Runner
	scheduleDir string
	schedules   config.Schedules

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSyncing  bool
	cancelFunc context.CancelFunc
}

func NewScheduledFileScheduler(runner *feed.Runner, feeds config.Feeds, schedules config.Schedules) *ScheduledFileScheduler {
	return &ScheduledFileScheduler{
		runner:      runner,
		scheduleDir: feeds.ScheduleDir,
		schedules:   schedules,
		cron:        cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins watching for the drop file
func (s *ScheduledFileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.scheduleDir == "" {
		log.Printf("Scheduled file scheduler: schedule directory not configured, skipping")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedules.ScheduledFileCron, func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("invalid scheduled file schedule '%s': %w", s.schedules.ScheduledFileCron, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Scheduled file scheduler: watching %s with schedule '%s'",
		filepath.Join(s.scheduleDir, scheduledFeedFile), s.schedules.ScheduledFileCron)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *ScheduledFileScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Scheduled file scheduler: stopped")
}

// RunNow triggers an immediate check
func (s *ScheduledFileScheduler) RunNow() error {
	go s.runSync()
	return nil
}

// IsRunning returns whether the scheduler is active
func (s *ScheduledFileScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// runSync consumes the drop file if present and runs the requested feeds.
func (s *ScheduledFileScheduler) runSync() {
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

	request, ok := s.consumeFile()
	if !ok {
		return
	}

	log.Printf("Scheduled file: running %v for store %d", request.Feeds, request.Store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	if err := s.runner.SelectedFeeds(ctx, request.Store, request.Feeds); err != nil {
		log.Printf("Scheduled file: run failed for store %d: %v", request.Store, err)
	}
}

// consumeFile reads and deletes the drop file. The delete happens before the
// run so a crash mid-run cannot replay the request.
func (s *ScheduledFileScheduler) consumeFile() (scheduledFeedRequest, bool) {
	path := filepath.Join(s.scheduleDir, scheduledFeedFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Scheduled file: failed to read %s: %v", path, err)
		}
		return scheduledFeedRequest{}, false
	}

	if err := os.Remove(path); err != nil {
		log.Printf("Scheduled file: failed to remove %s: %v", path, err)
		return scheduledFeedRequest{}, false
	}

	var request scheduledFeedRequest
	if err := json.Unmarshal(data, &request); err != nil {
		log.Printf("Scheduled file: invalid contents in %s: %v", path, err)
		return scheduledFeedRequest{}, false
	}

	if len(request.Feeds) == 0 {
		log.Printf("Scheduled file: %s named no feeds, ignoring", path)
		return scheduledFeedRequest{}, false
	}

	return request, true
}
