package feed

import (
	"fmt"
	"sync"

	"github.com/pureclarity/feedsync/internal/runstate"
)

// FeedStatus is the display state of one feed type for one store.
type FeedStatus struct {
	Enabled bool   `json:"enabled"`
	Error   bool   `json:"error"`
	Running bool   `json:"running"`
	Label   string `json:"label"`
}

// Status aggregates the persisted run state into display statuses. Results
// are memoized per instance so repeated lookups during one request render a
// consistent snapshot; build a fresh Status to re-read.
type Status struct {
	registry *Registry
	tracker  *runstate.Tracker

	mu    sync.Mutex
	cache map[string]FeedStatus
}

func NewStatus(registry *Registry, tracker *runstate.Tracker) *Status {
	return &Status{
		registry: registry,
		tracker:  tracker,
		cache:    make(map[string]FeedStatus),
	}
}

// GetFeedStatus resolves the display status of a feed type for a store.
// The first matching state wins: disabled, errored, waiting to start, queued
// behind other feeds, in progress, last sent, never sent.
func (s *Status) GetFeedStatus(feedType string, storeID int) (FeedStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%s:%d", feedType, storeID)
	if status, ok := s.cache[key]; ok {
		return status, nil
	}

	status, err := s.resolve(feedType, storeID)
	if err != nil {
		return FeedStatus{}, err
	}
	s.cache[key] = status
	return status, nil
}

func (s *Status) resolve(feedType string, storeID int) (FeedStatus, error) {
	handler, err := s.registry.GetFeedHandler(feedType)
	if err != nil {
		return FeedStatus{}, err
	}

	if !handler.IsEnabled(storeID) {
		return FeedStatus{Label: "Not enabled"}, nil
	}

	if s.tracker.GetFeedError(feedType, storeID) != "" {
		return FeedStatus{Enabled: true, Error: true, Label: "Error, see logs for details"}, nil
	}

	if containsString(s.tracker.GetRequestedFeeds(storeID), feedType) {
		return FeedStatus{Enabled: true, Running: true, Label: "Waiting for feed run to start"}, nil
	}

	if containsString(s.tracker.GetRunningFeeds(storeID), feedType) {
		progress := s.tracker.GetProgress(feedType, storeID)
		if progress == "" {
			return FeedStatus{Enabled: true, Running: true, Label: "Waiting for other feeds to finish"}, nil
		}
		return FeedStatus{Enabled: true, Running: true, Label: fmt.Sprintf("In progress: %s%%", progress)}, nil
	}

	if lastRun := s.tracker.GetLastRunDate(feedType, storeID); !lastRun.IsZero() {
		return FeedStatus{Enabled: true, Label: "Last sent " + lastRun.Format("2 Jan 2006 15:04")}, nil
	}

	return FeedStatus{Enabled: true, Label: "Feed has not been sent"}, nil
}
