package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/database/state"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
	"github.com/stretchr/testify/require"
)

// feedTestEnv wires a fresh database and the feed pipeline around it.
type feedTestEnv struct {
	db      *database.Database
	repo    *state.Repository
	tracker *runstate.Tracker
	catalog *catalog.Catalog
	pricer  *catalog.Pricer
	feeds   config.Feeds
}

func setupFeedTest(t *testing.T) (*feedTestEnv, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	repo := state.NewRepository(db.DB)
	cat := catalog.New(db.DB)
	env := &feedTestEnv{
		db:      db,
		repo:    repo,
		tracker: runstate.NewTracker(repo),
		catalog: cat,
		pricer:  catalog.NewPricer(cat),
		feeds: config.Feeds{
			PageSize:            2,
			BrandFeedEnabled:    false,
			BrandParentCategory: -1,
		},
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return env, cleanup
}

func (e *feedTestEnv) seedStore(t *testing.T, id int) {
	t.Helper()
	require.NoError(t, e.db.DB.Create(&entities.Store{
		ID:           id,
		Code:         "store_" + string(rune('0'+id)),
		Name:         "Test Store",
		BaseURL:      "https://shop.example.com",
		CurrencyCode: "GBP",
		Active:       true,
	}).Error)
}

func (e *feedTestEnv) scope(t *testing.T, storeID int) *catalog.Scope {
	t.Helper()
	scope, err := catalog.LoadScope(e.db, e.feeds, storeID)
	require.NoError(t, err)
	return scope
}

// apiCall is one decoded request the fake remote API received.
type apiCall struct {
	Path     string
	FeedType string
	Page     int
	Rows     int
}

// fakeAPI is an in-process stand-in for the remote feed API. Feed types in
// failTypes get a 400 on every request.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	failTypes map[string]bool
}

func newFakeAPI(failTypes ...string) *fakeAPI {
	f := &fakeAPI{failTypes: make(map[string]bool)}
	for _, ft := range failTypes {
		f.failTypes[ft] = true
	}
	return f
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			FeedType string           `json:"feedType"`
			Page     int              `json:"page"`
			Data     []map[string]any `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{
			Path:     r.URL.Path,
			FeedType: payload.FeedType,
			Page:     payload.Page,
			Rows:     len(payload.Data),
		})
		fail := f.failTypes[payload.FeedType]
		f.mu.Unlock()

		if fail {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (f *fakeAPI) serve(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(f.handler())
	t.Cleanup(server.Close)
	return server
}

func (f *fakeAPI) callsFor(feedType string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []apiCall
	for _, c := range f.calls {
		if c.FeedType == feedType {
			calls = append(calls, c)
		}
	}
	return calls
}
