package runstate

import (
	"os"
	"testing"
	"time"

	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/database/state"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTracker creates a tracker over a fresh test database
func setupTracker(t *testing.T) (*Tracker, *state.Repository, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := state.NewRepository(db.DB)
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewTracker(repo), repo, cleanup
}

func TestRunningFeeds(t *testing.T) {
	tracker, repo, cleanup := setupTracker(t)
	defer cleanup()

	t.Run("empty by default", func(t *testing.T) {
		assert.Empty(t, tracker.GetRunningFeeds(1))
	})

	t.Run("set writes the full list", func(t *testing.T) {
		tracker.SetRunningFeeds(1, []string{"product", "category", "order"})
		assert.Equal(t, []string{"product", "category", "order"}, tracker.GetRunningFeeds(1))
	})

	t.Run("remove shrinks the persisted set", func(t *testing.T) {
		tracker.RemoveRunningFeed(1, "product")
		assert.Equal(t, []string{"category", "order"}, tracker.GetRunningFeeds(1))

		// The shrunk set is persisted, not just cached
		record := repo.GetByNameAndStore(entities.StateRunningFeeds, 1)
		assert.True(t, record.Saved())
		assert.JSONEq(t, `["category","order"]`, record.Value)
	})

	t.Run("removing the last entry deletes the record", func(t *testing.T) {
		tracker.RemoveRunningFeed(1, "category")
		tracker.RemoveRunningFeed(1, "order")

		assert.Empty(t, tracker.GetRunningFeeds(1))
		assert.False(t, repo.GetByNameAndStore(entities.StateRunningFeeds, 1).Saved())
	})

	t.Run("clear deletes the record outright", func(t *testing.T) {
		tracker.SetRunningFeeds(2, []string{"user"})
		tracker.ClearRunningFeeds(2)
		assert.False(t, repo.GetByNameAndStore(entities.StateRunningFeeds, 2).Saved())
	})
}

func TestRequestedFeeds(t *testing.T) {
	tracker, repo, cleanup := setupTracker(t)
	defer cleanup()

	t.Run("add merges without duplicates", func(t *testing.T) {
		tracker.AddRequestedFeeds(1, []string{"product", "order"})
		tracker.AddRequestedFeeds(1, []string{"order", "user"})
		assert.Equal(t, []string{"product", "order", "user"}, tracker.GetRequestedFeeds(1))
	})

	t.Run("requested stores lists pending store IDs", func(t *testing.T) {
		tracker.AddRequestedFeeds(3, []string{"category"})
		assert.Equal(t, []int{1, 3}, tracker.RequestedStores())
	})

	t.Run("take consumes the set", func(t *testing.T) {
		taken := tracker.TakeRequestedFeeds(1)
		assert.Equal(t, []string{"product", "order", "user"}, taken)
		assert.Empty(t, tracker.GetRequestedFeeds(1))
		assert.False(t, repo.GetByNameAndStore(entities.StateRequestedFeeds, 1).Saved())
	})

	t.Run("take on an empty set returns nil", func(t *testing.T) {
		assert.Nil(t, tracker.TakeRequestedFeeds(9))
	})
}

func TestFeedError(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	assert.Empty(t, tracker.GetFeedError("product", 1))

	tracker.SetFeedError("product", 1, "connection refused")
	assert.Equal(t, "connection refused", tracker.GetFeedError("product", 1))

	// Errors are scoped per type and store
	assert.Empty(t, tracker.GetFeedError("category", 1))
	assert.Empty(t, tracker.GetFeedError("product", 2))

	// A run attempt clears the error by writing empty
	tracker.SetFeedError("product", 1, "")
	assert.Empty(t, tracker.GetFeedError("product", 1))
}

func TestProgress(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	tracker.SetProgress("product", 1, "40")
	assert.Equal(t, "40", tracker.GetProgress("product", 1))

	tracker.SetProgress("product", 1, "100 (3 rows skipped)")
	assert.Equal(t, "100 (3 rows skipped)", tracker.GetProgress("product", 1))

	tracker.ClearProgress("product", 1)
	assert.Empty(t, tracker.GetProgress("product", 1))
}

func TestLastRunDate(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	assert.True(t, tracker.GetLastRunDate("order", 1).IsZero())

	at := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	tracker.SetLastRunDate("order", 1, at)
	assert.Equal(t, at, tracker.GetLastRunDate("order", 1).UTC())
}

func TestBannerStatus(t *testing.T) {
	tracker, _, cleanup := setupTracker(t)
	defer cleanup()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fresh install shows the welcome banner", func(t *testing.T) {
		status := tracker.GetBannerStatus(1)
		assert.False(t, status.WelcomeShown)
		assert.False(t, status.ShowGettingStarted(now))
	})

	t.Run("first completion opens the getting-started window", func(t *testing.T) {
		tracker.MarkFeedsCompleted(1, now)

		status := tracker.GetBannerStatus(1)
		assert.True(t, status.WelcomeShown)
		assert.True(t, status.ShowGettingStarted(now.Add(time.Hour)))
		assert.False(t, status.ShowGettingStarted(now.Add(25*time.Hour)))
	})

	t.Run("later completions do not reopen the window", func(t *testing.T) {
		tracker.MarkFeedsCompleted(1, now.Add(48*time.Hour))

		status := tracker.GetBannerStatus(1)
		require.NotNil(t, status.GettingStartedExpiry)
		assert.Equal(t, now.Add(24*time.Hour), status.GettingStartedExpiry.UTC())
	})
}
