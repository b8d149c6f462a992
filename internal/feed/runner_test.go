package feed

import (
	"context"
	"testing"

	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/pureclarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFullCatalog(t *testing.T, env *feedTestEnv, storeID int) {
	t.Helper()
	env.seedStore(t, storeID)

	// Three enabled products: two pages at page size 2. The disabled one
	// must not be counted.
	for i, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
		require.NoError(t, env.db.DB.Create(&entities.Product{
			StoreID:    storeID,
			SKU:        sku,
			Name:       "Product " + sku,
			TypeID:     entities.ProductTypeSimple,
			Visibility: entities.VisibilityCatalogSearch,
			Enabled:    true,
			URL:        "https://shop.example.com/p/" + sku,
			Price:      float64(10 + i),
			InStock:    true,
		}).Error)
	}
	require.NoError(t, env.db.DB.Create(&entities.Product{
		StoreID: storeID,
		SKU:     "SKU-DISABLED",
		Name:    "Hidden",
		TypeID:  entities.ProductTypeSimple,
		Enabled: false,
	}).Error)

	require.NoError(t, env.db.DB.Create(&entities.Category{
		StoreID: storeID,
		Name:    "Shoes",
		URL:     "https://shop.example.com/shoes",
		Active:  true,
	}).Error)

	require.NoError(t, env.db.DB.Create(&entities.Customer{
		StoreID:   storeID,
		Email:     "jo@example.com",
		FirstName: "Jo",
		LastName:  "Bloggs",
	}).Error)

	require.NoError(t, env.db.DB.Create(&entities.Order{
		StoreID:     storeID,
		IncrementID: "100000001",
		Email:       "jo@example.com",
		Status:      entities.OrderStatusComplete,
		Items:       []entities.OrderItem{{SKU: "SKU-1", Qty: 1, Price: 10}},
	}).Error)
	require.NoError(t, env.db.DB.Create(&entities.Order{
		StoreID:     storeID,
		IncrementID: "100000002",
		Email:       "jo@example.com",
		Status:      entities.OrderStatusPending,
	}).Error)
}

func newTestRunner(t *testing.T, env *feedTestEnv, api *fakeAPI) *Runner {
	t.Helper()
	server := api.serve(t)
	client := pureclarity.NewClientWithBaseURL("access", "secret", server.URL)
	registry := NewDefaultRegistry(env.catalog, env.pricer, env.tracker, env.feeds)
	return NewRunner(env.db, registry, env.tracker, client, env.feeds)
}

func TestRunnerAllFeeds(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	seedFullCatalog(t, env, 1)

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	require.NoError(t, runner.AllFeeds(context.Background(), 1))

	t.Run("product feed is paginated", func(t *testing.T) {
		calls := api.callsFor(TypeProduct)
		require.Len(t, calls, 4) // start, two pages, close
		assert.Equal(t, "/api/feed/start", calls[0].Path)
		assert.Equal(t, "/api/feed/append", calls[1].Path)
		assert.Equal(t, 1, calls[1].Page)
		assert.Equal(t, 2, calls[1].Rows)
		assert.Equal(t, 2, calls[2].Page)
		assert.Equal(t, 1, calls[2].Rows)
		assert.Equal(t, "/api/feed/close", calls[3].Path)
	})

	t.Run("disabled brand feed is never submitted", func(t *testing.T) {
		assert.Empty(t, api.callsFor(TypeBrand))
	})

	t.Run("completion bookkeeping", func(t *testing.T) {
		for _, feedType := range []string{TypeProduct, TypeCategory, TypeUser, TypeOrder} {
			assert.False(t, env.tracker.GetLastRunDate(feedType, 1).IsZero(), feedType)
			assert.Empty(t, env.tracker.GetFeedError(feedType, 1), feedType)
		}
		assert.True(t, env.tracker.GetLastRunDate(TypeBrand, 1).IsZero(), "skipped feed gets no date")
		assert.Equal(t, "100", env.tracker.GetProgress(TypeProduct, 1))
		assert.Empty(t, env.tracker.GetRunningFeeds(1))
		assert.True(t, env.tracker.GetBannerStatus(1).WelcomeShown)
	})
}

func TestRunnerFailureIsolation(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	seedFullCatalog(t, env, 1)

	// The category feed fails at the remote end on every call.
	api := newFakeAPI(TypeCategory)
	runner := newTestRunner(t, env, api)

	require.NoError(t, runner.AllFeeds(context.Background(), 1))

	t.Run("failed type records its error", func(t *testing.T) {
		assert.NotEmpty(t, env.tracker.GetFeedError(TypeCategory, 1))
		assert.True(t, env.tracker.GetLastRunDate(TypeCategory, 1).IsZero())
	})

	t.Run("remaining types still run", func(t *testing.T) {
		for _, feedType := range []string{TypeProduct, TypeUser, TypeOrder} {
			assert.False(t, env.tracker.GetLastRunDate(feedType, 1).IsZero(), feedType)
			assert.Empty(t, env.tracker.GetFeedError(feedType, 1), feedType)
		}
		assert.NotEmpty(t, api.callsFor(TypeOrder))
	})

	t.Run("run still finishes cleanly", func(t *testing.T) {
		assert.Empty(t, env.tracker.GetRunningFeeds(1))
		assert.True(t, env.tracker.GetBannerStatus(1).WelcomeShown)
	})
}

func TestRunnerQueryFailureIsolation(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	seedFullCatalog(t, env, 1)

	// The category table is gone: counting and paging both fail at the
	// database, not at the remote end.
	require.NoError(t, env.db.DB.Migrator().DropTable(&entities.Category{}))

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	require.NoError(t, runner.AllFeeds(context.Background(), 1))

	t.Run("failed type records its error and sends nothing", func(t *testing.T) {
		assert.NotEmpty(t, env.tracker.GetFeedError(TypeCategory, 1))
		assert.True(t, env.tracker.GetLastRunDate(TypeCategory, 1).IsZero())
		assert.Empty(t, api.callsFor(TypeCategory))
	})

	t.Run("remaining types still run", func(t *testing.T) {
		for _, feedType := range []string{TypeProduct, TypeUser, TypeOrder} {
			assert.False(t, env.tracker.GetLastRunDate(feedType, 1).IsZero(), feedType)
			assert.Empty(t, env.tracker.GetFeedError(feedType, 1), feedType)
		}
	})

	t.Run("run still finishes cleanly", func(t *testing.T) {
		assert.Empty(t, env.tracker.GetRunningFeeds(1))
		assert.True(t, env.tracker.GetBannerStatus(1).WelcomeShown)
	})
}

func TestRunnerSecondRunClearsStaleProgress(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	seedFullCatalog(t, env, 1)

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	require.NoError(t, runner.SelectedFeeds(context.Background(), 1, []string{TypeProduct}))
	require.Equal(t, "100", env.tracker.GetProgress(TypeProduct, 1))

	// Empty the catalog so the next run has nothing to send for the type and
	// never writes a new percentage.
	require.NoError(t, env.db.DB.Exec("DELETE FROM catalog_products").Error)

	require.NoError(t, runner.SelectedFeeds(context.Background(), 1, []string{TypeProduct}))
	assert.Empty(t, env.tracker.GetProgress(TypeProduct, 1),
		"the previous run's percentage must not survive a new run start")

	// A feed queued behind others must read as waiting, not as the previous
	// run's percentage.
	env.tracker.SetRunningFeeds(1, []string{TypeCategory, TypeProduct})
	got, err := NewStatus(newTestRegistry(env), env.tracker).GetFeedStatus(TypeProduct, 1)
	require.NoError(t, err)
	assert.Equal(t, "Waiting for other feeds to finish", got.Label)
}

func TestRunnerEmptyCatalog(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	env.seedStore(t, 7)

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	// A store with nothing to export must still finish the run and reach
	// the completion bookkeeping, not hang or leave stale state.
	require.NoError(t, runner.SelectedFeeds(context.Background(), 7, []string{TypeProduct}))

	assert.Empty(t, api.callsFor(TypeProduct), "nothing was submitted")
	assert.Empty(t, env.tracker.GetRunningFeeds(7))
	assert.True(t, env.tracker.GetBannerStatus(7).WelcomeShown)
	assert.True(t, env.tracker.GetLastRunDate(TypeProduct, 7).IsZero())
}

func TestRunnerUnknownFeedType(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()
	env.seedStore(t, 1)

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	err := runner.SelectedFeeds(context.Background(), 1, []string{TypeProduct, "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized feed type")

	// The run aborted before any state was written or anything was sent.
	assert.Empty(t, env.tracker.GetRunningFeeds(1))
	assert.Empty(t, api.callsFor(TypeProduct))
}

func TestRunnerUnknownStore(t *testing.T) {
	env, cleanup := setupFeedTest(t)
	defer cleanup()

	api := newFakeAPI()
	runner := newTestRunner(t, env, api)

	err := runner.AllFeeds(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store 42")
}
