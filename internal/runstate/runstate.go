// Package runstate exposes typed accessors over the generic state record
// table. Persistence failures here are logged and swallowed: feed runs must
// not abort because status bookkeeping failed.
package runstate

import (
	"encoding/json"
	"log"
	"time"

	"github.com/pureclarity/feedsync/internal/database/state"
	"github.com/pureclarity/feedsync/internal/entities"
)

type Tracker struct {
	states *state.Repository
}

func NewTracker(states *state.Repository) *Tracker {
	return &Tracker{states: states}
}

// GetRunningFeeds returns the feed types still in flight for a store.
func (t *Tracker) GetRunningFeeds(storeID int) []string {
	return t.getFeedList(entities.StateRunningFeeds, storeID)
}

// SetRunningFeeds overwrites the running set for a store.
func (t *Tracker) SetRunningFeeds(storeID int, feedTypes []string) {
	t.setFeedList(entities.StateRunningFeeds, storeID, feedTypes)
}

// RemoveRunningFeed shrinks the running set by one completed type and
// persists the result, deleting the record entirely once the set empties.
func (t *Tracker) RemoveRunningFeed(storeID int, feedType string) {
	remaining := make([]string, 0)
	for _, ft := range t.GetRunningFeeds(storeID) {
		if ft != feedType {
			remaining = append(remaining, ft)
		}
	}
	if len(remaining) == 0 {
		t.ClearRunningFeeds(storeID)
		return
	}
	t.setFeedList(entities.StateRunningFeeds, storeID, remaining)
}

// ClearRunningFeeds deletes the running set record for a store.
func (t *Tracker) ClearRunningFeeds(storeID int) {
	if err := t.states.DeleteByNameAndStore(entities.StateRunningFeeds, storeID); err != nil {
		log.Printf("Run state: failed to clear running feeds for store %d: %v", storeID, err)
	}
}

// GetRequestedFeeds returns the feed types pending execution for a store.
func (t *Tracker) GetRequestedFeeds(storeID int) []string {
	return t.getFeedList(entities.StateRequestedFeeds, storeID)
}

// AddRequestedFeeds merges newly requested types into the pending set,
// skipping types already requested.
func (t *Tracker) AddRequestedFeeds(storeID int, feedTypes []string) {
	requested := t.GetRequestedFeeds(storeID)
	seen := make(map[string]bool, len(requested))
	for _, ft := range requested {
		seen[ft] = true
	}
	for _, ft := range feedTypes {
		if !seen[ft] {
			requested = append(requested, ft)
			seen[ft] = true
		}
	}
	t.setFeedList(entities.StateRequestedFeeds, storeID, requested)
}

// TakeRequestedFeeds consumes the pending set for a store: it returns the
// requested types and deletes the record so the request runs once.
func (t *Tracker) TakeRequestedFeeds(storeID int) []string {
	requested := t.GetRequestedFeeds(storeID)
	if len(requested) == 0 {
		return nil
	}
	if err := t.states.DeleteByNameAndStore(entities.StateRequestedFeeds, storeID); err != nil {
		log.Printf("Run state: failed to consume requested feeds for store %d: %v", storeID, err)
	}
	return requested
}

// RequestedStores lists the store IDs with pending feed requests.
func (t *Tracker) RequestedStores() []int {
	records, err := t.states.GetListByName(entities.StateRequestedFeeds)
	if err != nil {
		log.Printf("Run state: failed to list requested feeds: %v", err)
		return nil
	}
	stores := make([]int, 0, len(records))
	for _, r := range records {
		stores = append(stores, r.StoreID)
	}
	return stores
}

// GetFeedError returns the last error for a feed type, empty when none.
func (t *Tracker) GetFeedError(feedType string, storeID int) string {
	return t.states.GetByNameAndStore(entities.StateFeedError(feedType), storeID).Value
}

// SetFeedError records a feed type's error. An empty message clears it; every
// run attempt starts by clearing.
func (t *Tracker) SetFeedError(feedType string, storeID int, message string) {
	t.save(entities.StateFeedError(feedType), storeID, message)
}

// GetProgress returns the percentage-complete string for a feed type.
func (t *Tracker) GetProgress(feedType string, storeID int) string {
	return t.states.GetByNameAndStore(entities.StateFeedProgress(feedType), storeID).Value
}

// SetProgress records the percentage-complete string for a feed type.
func (t *Tracker) SetProgress(feedType string, storeID int, progress string) {
	t.save(entities.StateFeedProgress(feedType), storeID, progress)
}

// ClearProgress deletes the progress record for a feed type.
func (t *Tracker) ClearProgress(feedType string, storeID int) {
	if err := t.states.DeleteByNameAndStore(entities.StateFeedProgress(feedType), storeID); err != nil {
		log.Printf("Run state: failed to clear %s progress for store %d: %v", feedType, storeID, err)
	}
}

// GetLastRunDate returns when a feed type last completed, zero when never.
func (t *Tracker) GetLastRunDate(feedType string, storeID int) time.Time {
	value := t.states.GetByNameAndStore(entities.StateFeedLastRun(feedType), storeID).Value
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Printf("Run state: invalid %s last run date %q: %v", feedType, value, err)
		return time.Time{}
	}
	return ts
}

// SetLastRunDate records a successful completion. Set only on success.
func (t *Tracker) SetLastRunDate(feedType string, storeID int, at time.Time) {
	t.save(entities.StateFeedLastRun(feedType), storeID, at.Format(time.RFC3339))
}

func (t *Tracker) getFeedList(name string, storeID int) []string {
	record := t.states.GetByNameAndStore(name, storeID)
	if record.Value == "" {
		return nil
	}
	var feedTypes []string
	if err := json.Unmarshal([]byte(record.Value), &feedTypes); err != nil {
		log.Printf("Run state: invalid %s value for store %d: %v", name, storeID, err)
		return nil
	}
	return feedTypes
}

func (t *Tracker) setFeedList(name string, storeID int, feedTypes []string) {
	payload, err := json.Marshal(feedTypes)
	if err != nil {
		log.Printf("Run state: failed to encode %s for store %d: %v", name, storeID, err)
		return
	}
	t.save(name, storeID, string(payload))
}

func (t *Tracker) save(name string, storeID int, value string) {
	record := t.states.GetByNameAndStore(name, storeID)
	record.Value = value
	if err := t.states.Save(record); err != nil {
		log.Printf("Run state: failed to save %s for store %d: %v", name, storeID, err)
	}
}
