// Package catalog reads the commerce backend's tables: paginated sources for
// each feed type, store scoping, and price calculation. The tables are an
// opaque data source; nothing here writes to them.
package catalog

import (
	"fmt"
	"strings"

	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/entities"
)

// Scope is the store context a feed run operates in. Handlers that require
// emulation get store-specific currency and URL rendering activated once per
// run instead of per row.
type Scope struct {
	Store *entities.Store

	PlaceholderImageURL string
	SecondaryImageURL   string
	ExcludeOutOfStock   bool
	BrandParentCategory int

	emulated bool
	baseURL  string
}

// LoadScope resolves the store and its feed configuration.
func LoadScope(db *database.Database, feeds config.Feeds, storeID int) (*Scope, error) {
	store, err := db.GetStore(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store %d: %w", storeID, err)
	}
	return &Scope{
		Store:               store,
		PlaceholderImageURL: feeds.PlaceholderImageURL,
		SecondaryImageURL:   feeds.SecondaryImageURL,
		ExcludeOutOfStock:   feeds.ExcludeOutOfStock,
		BrandParentCategory: feeds.BrandParentCategory,
	}, nil
}

// Emulate activates store-scoped URL rendering for handlers that declare
// RequiresEmulation: the store base URL is normalized once per run so
// relative catalog URLs resolve without per-row work. Idempotent.
func (s *Scope) Emulate() {
	if s.emulated {
		return
	}
	s.emulated = true
	s.baseURL = strings.TrimSuffix(s.Store.BaseURL, "/")
}

// Emulated reports whether store emulation is active.
func (s *Scope) Emulated() bool {
	return s.emulated
}

// ResolveURL renders a catalog URL for export. Relative URLs resolve against
// the store base URL when emulation is active; absolute URLs pass through
// untouched.
func (s *Scope) ResolveURL(url string) string {
	if url == "" || !s.emulated {
		return url
	}
	if strings.HasPrefix(url, "http:") || strings.HasPrefix(url, "https:") || strings.HasPrefix(url, "//") {
		return url
	}
	return s.baseURL + "/" + strings.TrimPrefix(url, "/")
}

// StoreID is a convenience accessor.
func (s *Scope) StoreID() int {
	return s.Store.ID
}
