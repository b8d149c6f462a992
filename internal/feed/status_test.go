package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(env *feedTestEnv) *Registry {
	return NewDefaultRegistry(env.catalog, env.pricer, env.tracker, env.feeds)
}

func TestFeedStatusPrecedence(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	registry := newTestRegistry(env)

	status := func() *Status { return NewStatus(registry, env.tracker) }

	t.Run("unrecognized type is an error", func(t *testing.T) {
		_, err := status().GetFeedStatus("bogus", 1)
		assert.Error(t, err)
	})

	t.Run("disabled feed", func(t *testing.T) {
		got, err := status().GetFeedStatus(TypeBrand, 1)
		require.NoError(t, err)
		assert.False(t, got.Enabled)
		assert.Equal(t, "Not enabled", got.Label)
	})

	t.Run("never sent", func(t *testing.T) {
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.True(t, got.Enabled)
		assert.False(t, got.Running)
		assert.Equal(t, "Feed has not been sent", got.Label)
	})

	t.Run("last sent", func(t *testing.T) {
		env.tracker.SetLastRunDate(TypeProduct, 1, time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC))
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.Contains(t, got.Label, "Last sent")
	})

	t.Run("queued behind other feeds", func(t *testing.T) {
		env.tracker.SetRunningFeeds(1, []string{TypeCategory, TypeProduct})
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.True(t, got.Running)
		assert.Equal(t, "Waiting for other feeds to finish", got.Label)
	})

	t.Run("in progress once a percentage exists", func(t *testing.T) {
		env.tracker.SetProgress(TypeProduct, 1, "40")
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.True(t, got.Running)
		assert.Equal(t, "In progress: 40%", got.Label)
	})

	t.Run("requested outranks running", func(t *testing.T) {
		env.tracker.AddRequestedFeeds(1, []string{TypeProduct})
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.True(t, got.Running)
		assert.Equal(t, "Waiting for feed run to start", got.Label)
	})

	t.Run("error outranks everything but disabled", func(t *testing.T) {
		env.tracker.SetFeedError(TypeProduct, 1, "boom")
		got, err := status().GetFeedStatus(TypeProduct, 1)
		require.NoError(t, err)
		assert.True(t, got.Error)
		assert.Equal(t, "Error, see logs for details", got.Label)
	})
}

func TestFeedStatusMemoization(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	registry := newTestRegistry(env)

	aggregator := NewStatus(registry, env.tracker)

	first, err := aggregator.GetFeedStatus(TypeProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, "Feed has not been sent", first.Label)

	// State changes are not visible through the same instance
	env.tracker.SetFeedError(TypeProduct, 1, "boom")
	cached, err := aggregator.GetFeedStatus(TypeProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// A fresh instance re-reads
	fresh, err := NewStatus(registry, env.tracker).GetFeedStatus(TypeProduct, 1)
	require.NoError(t, err)
	assert.True(t, fresh.Error)
}

func TestRequester(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	requester := NewRequester(newTestRegistry(env), env.tracker)

	t.Run("rejects unknown types", func(t *testing.T) {
		err := requester.RequestFeeds(1, []string{TypeProduct, "bogus"})
		assert.Error(t, err)
		assert.Empty(t, env.tracker.GetRequestedFeeds(1))
	})

	t.Run("rejects empty requests", func(t *testing.T) {
		assert.Error(t, requester.RequestFeeds(1, nil))
	})

	t.Run("merges repeat requests", func(t *testing.T) {
		require.NoError(t, requester.RequestFeeds(1, []string{TypeProduct}))
		require.NoError(t, requester.RequestFeeds(1, []string{TypeProduct, TypeOrder}))
		assert.Equal(t, []string{TypeProduct, TypeOrder}, env.tracker.GetRequestedFeeds(1))
	})
}
