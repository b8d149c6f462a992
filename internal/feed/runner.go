package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/pureclarity"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// droppedRowCounter is implemented by handlers that count rows discarded by
// the drop-on-error policy. Counts are per store so overlapping runs for
// different stores do not interleave.
type droppedRowCounter interface {
	DroppedRows(storeID int) int
	ResetDroppedRows(storeID int)
}

// Runner orchestrates feed runs for a store: it paginates each requested
// type, streams pages to the remote API and keeps the persisted run state
// (running set, errors, progress, completion dates) current as it goes.
//
// Failure is isolated per type: one type's pagination or transform failure is
// recorded in that type's error state and the remaining types still run. Only
// an unrecognized feed type aborts the whole run.
type Runner struct {
	db       *database.Database
	registry *Registry
	tracker  *runstate.Tracker
	client   *pureclarity.Client
	feeds    config.Feeds

	mu         sync.Mutex
	storeLocks map[int]*sync.Mutex
}

func NewRunner(db *database.Database, registry *Registry, tracker *runstate.Tracker, client *pureclarity.Client, feeds config.Feeds) *Runner {
	return &Runner{
		db:         db,
		registry:   registry,
		tracker:    tracker,
		client:     client,
		feeds:      feeds,
		storeLocks: make(map[int]*sync.Mutex),
	}
}

// AllFeeds runs every feed type for a store in the fixed order.
func (r *Runner) AllFeeds(ctx context.Context, storeID int) error {
	return r.SelectedFeeds(ctx, storeID, RunOrder)
}

// SelectedFeeds runs the given feed types for a store. At most one run
// mutates a store's state at a time; overlapping triggers for the same store
// serialize here.
func (r *Runner) SelectedFeeds(ctx context.Context, storeID int, feedTypes []string) error {
	lock := r.storeLock(storeID)
	lock.Lock()
	defer lock.Unlock()

	return r.doFeed(ctx, storeID, feedTypes)
}

func (r *Runner) doFeed(ctx context.Context, storeID int, feedTypes []string) error {
	// An unknown type is a programming error: abort before any state is
	// touched.
	handlers := make([]TypeHandler, 0, len(feedTypes))
	for _, feedType := range feedTypes {
		handler, err := r.registry.GetFeedHandler(feedType)
		if err != nil {
			return err
		}
		handlers = append(handlers, handler)
	}

	scope, err := catalog.LoadScope(r.db, r.feeds, storeID)
	if err != nil {
		return fmt.Errorf("feed run for store %d: %w", storeID, err)
	}

	log.Printf("Feed run: starting %v for store %d", feedTypes, storeID)
	r.tracker.SetRunningFeeds(storeID, feedTypes)
	for _, feedType := range feedTypes {
		r.tracker.SetFeedError(feedType, storeID, "")
		// A stale percentage from the previous run would make a queued feed
		// read as in progress.
		r.tracker.ClearProgress(feedType, storeID)
	}

	session := r.client.NewSession(storeID)

	for _, handler := range handlers {
		feedType := handler.FeedType()

		if !handler.IsEnabled(storeID) {
			log.Printf("Feed run: %s feed disabled for store %d, skipping", feedType, storeID)
			r.tracker.RemoveRunningFeed(storeID, feedType)
			continue
		}

		if handler.RequiresEmulation() {
			scope.Emulate()
		}

		r.sendFeed(ctx, session, scope, handler)

		r.tracker.RemoveRunningFeed(storeID, feedType)
		if session.Succeeded(feedType) && r.tracker.GetFeedError(feedType, storeID) == "" {
			r.tracker.SetLastRunDate(feedType, storeID, time.Now())
		}
	}

	// checkSuccess bookkeeping: banner transition and return to idle happen
	// even when every type failed to load.
	r.tracker.MarkFeedsCompleted(storeID, time.Now())
	r.tracker.ClearRunningFeeds(storeID)
	log.Printf("Feed run: finished for store %d", storeID)
	return nil
}

// sendFeed streams one feed type page by page. It never returns an error:
// failures are recorded in the type's error state and the run moves on.
func (r *Runner) sendFeed(ctx context.Context, session *pureclarity.Session, scope *catalog.Scope, handler TypeHandler) {
	feedType := handler.FeedType()
	storeID := scope.StoreID()
	data := handler.DataHandler()
	rows := handler.RowHandler()

	if counter, ok := handler.(droppedRowCounter); ok {
		counter.ResetDroppedRows(storeID)
	}

	pages := data.TotalPages(scope)
	if pages == 0 {
		log.Printf("Feed run: %s feed has nothing to send for store %d", feedType, storeID)
		return
	}

	if err := session.StartFeed(ctx, feedType); err != nil {
		log.Printf("Feed run: %v", err)
		r.tracker.SetFeedError(feedType, storeID, err.Error())
		return
	}

	for page := 1; page <= pages; page++ {
		pageEntities := data.PageData(scope, page)

		exportRows := make([]Row, 0, len(pageEntities))
		for _, entity := range pageEntities {
			row := rows.RowData(scope, entity)
			if len(row) == 0 {
				// dropped by the row handler, already logged
				continue
			}
			exportRows = append(exportRows, row)
		}

		if err := session.SendPage(ctx, feedType, page, rowsToPayload(exportRows)); err != nil {
			log.Printf("Feed run: %v", err)
			r.tracker.SetFeedError(feedType, storeID, err.Error())
			return
		}

		r.tracker.SetProgress(feedType, storeID, fmt.Sprintf("%d", page*100/pages))
	}

	if err := session.EndFeed(ctx, feedType); err != nil {
		log.Printf("Feed run: %v", err)
		r.tracker.SetFeedError(feedType, storeID, err.Error())
		return
	}

	if counter, ok := handler.(droppedRowCounter); ok {
		if dropped := counter.DroppedRows(storeID); dropped > 0 {
			log.Printf("Feed run: %s feed for store %d skipped %d rows", feedType, storeID, dropped)
			r.tracker.SetProgress(feedType, storeID, fmt.Sprintf("100 (%d rows skipped)", dropped))
		}
	}
}

func (r *Runner) storeLock(storeID int) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.storeLocks[storeID]
	if !ok {
		lock = &sync.Mutex{}
		r.storeLocks[storeID] = lock
	}
	return lock
}
