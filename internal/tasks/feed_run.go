package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/pureclarity/feedsync/internal/feed"
)

// FeedRunTask runs the named feed types for one store.
type FeedRunTask struct {
	StoreID int      `json:"store_id"`
	Feeds   []string `json:"feeds"`
}

// Config returns the queue configuration for feed run tasks.
func (t FeedRunTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "feed_run",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Hour,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FeedRunProcessor creates a processor function for FeedRunTask.
func FeedRunProcessor(runner *feed.Runner) backlite.QueueProcessor[FeedRunTask] {
	return func(ctx context.Context, task FeedRunTask) error {
		if runner == nil {
			return fmt.Errorf("feed runner not configured")
		}

		started := time.Now()
		if err := runner.SelectedFeeds(ctx, task.StoreID, task.Feeds); err != nil {
			return fmt.Errorf("feed run for store %d: %w", task.StoreID, err)
		}

		log.Printf("[TASK] Ran %v feeds for store %d in %v",
			task.Feeds, task.StoreID, time.Since(started).Round(time.Millisecond))
		return nil
	}
}

// NewFeedRunQueue creates a backlite queue for feed run tasks.
func NewFeedRunQueue(runner *feed.Runner) backlite.Queue {
	return backlite.NewQueue(FeedRunProcessor(runner))
}
