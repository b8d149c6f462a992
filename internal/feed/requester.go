package feed

import (
	"fmt"

	"github.com/pureclarity/feedsync/internal/runstate"
)

// Requester records which feeds a store wants run. Requests accumulate in the
// persisted requested set until a trigger picks them up.
type Requester struct {
	registry *Registry
	tracker  *runstate.Tracker
}

func NewRequester(registry *Registry, tracker *runstate.Tracker) *Requester {
	return &Requester{registry: registry, tracker: tracker}
}

// RequestFeeds merges the given types into the store's requested set.
// Repeat requests for a type already queued are deduplicated.
func (q *Requester) RequestFeeds(storeID int, feedTypes []string) error {
	if len(feedTypes) == 0 {
		return fmt.Errorf("no feed types requested for store %d", storeID)
	}
	for _, feedType := range feedTypes {
		if _, err := q.registry.GetFeedHandler(feedType); err != nil {
			return err
		}
	}
	q.tracker.AddRequestedFeeds(storeID, feedTypes)
	return nil
}
