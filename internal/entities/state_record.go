package entities

import (
	"time"
)

// StateRecord is the generic run-state persistence unit. Every piece of feed
// bookkeeping (requested feeds, running set, errors, progress, last-run dates,
// banner status) multiplexes through this one table, keyed by (name, store_id).
// Store 0 is the global scope.
type StateRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex:idx_state_name_store" json:"name"`
	StoreID   int       `gorm:"uniqueIndex:idx_state_name_store" json:"store_id"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StateRecord) TableName() string {
	return "pureclarity_state"
}

// Saved reports whether the record exists in the database.
// GetByNameAndStore returns an empty unsaved record on a miss, so callers
// check this before deleting.
func (r *StateRecord) Saved() bool {
	return r.ID != 0
}

// Known state record names
const (
	StateRequestedFeeds = "requested_feeds"
	StateRunningFeeds   = "running_feeds"
	StateBannerStatus   = "banner_status"
)

// StateFeedError returns the error record name for a feed type,
// e.g. "last_product_feed_error".
func StateFeedError(feedType string) string {
	return "last_" + feedType + "_feed_error"
}

// StateFeedProgress returns the progress record name for a feed type,
// e.g. "feed_product_progress".
func StateFeedProgress(feedType string) string {
	return "feed_" + feedType + "_progress"
}

// StateFeedLastRun returns the last-run record name for a feed type,
// e.g. "last_product_feed_date".
func StateFeedLastRun(feedType string) string {
	return "last_" + feedType + "_feed_date"
}
