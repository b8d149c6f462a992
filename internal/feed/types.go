// Package feed implements the export pipeline: type handlers paginate the
// catalog and transform entities into export rows, the runner orchestrates
// per-store runs and their persisted state, the status aggregator serves the
// dashboard read path.
package feed

import (
	"fmt"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// Feed type identifiers.
const (
	TypeProduct  = "product"
	TypeCategory = "category"
	TypeBrand    = "brand"
	TypeUser     = "user"
	TypeOrder    = "order"
)

// RunOrder is the fixed order feed types are processed in within one run.
var RunOrder = []string{TypeProduct, TypeCategory, TypeBrand, TypeUser, TypeOrder}

// DefaultPageSize is the fixed page size per feed type.
const DefaultPageSize = 50

// Entity is one domain record produced by a data handler and consumed by the
// matching row handler.
type Entity any

// DataHandler paginates a feed type's data source. Pages are 1-indexed. On an
// underlying query failure implementations record the type's feed error and
// report 0 pages / an empty page; errors never propagate past this boundary.
type DataHandler interface {
	PageSize() int
	TotalPages(scope *catalog.Scope) int
	PageData(scope *catalog.Scope, page int) []Entity
}

// RowHandler converts one entity into an export row. A failed transform
// returns an empty row (the row is dropped, never partially populated).
type RowHandler interface {
	RowData(scope *catalog.Scope, entity Entity) Row
}

// TypeHandler is one feed type's plugin: gating, pagination and row
// transformation.
type TypeHandler interface {
	FeedType() string
	IsEnabled(storeID int) bool
	RequiresEmulation() bool
	DataHandler() DataHandler
	RowHandler() RowHandler
}

// Registry resolves feed type identifiers to their handlers.
type Registry struct {
	handlers map[string]TypeHandler
}

func NewRegistry(handlers ...TypeHandler) *Registry {
	r := &Registry{handlers: make(map[string]TypeHandler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.FeedType()] = h
	}
	return r
}

// GetFeedHandler returns the handler for a feed type. An unrecognized type is
// a programming error: the returned error is fatal and aborts the whole run.
func (r *Registry) GetFeedHandler(feedType string) (TypeHandler, error) {
	handler, ok := r.handlers[feedType]
	if !ok {
		return nil, fmt.Errorf("unrecognized feed type %q", feedType)
	}
	return handler, nil
}

// Known reports whether a feed type identifier is registered.
func (r *Registry) Known(feedType string) bool {
	_, ok := r.handlers[feedType]
	return ok
}

// NewDefaultRegistry wires the standard five feed types.
func NewDefaultRegistry(cat *catalog.Catalog, pricer *catalog.Pricer, tracker *runstate.Tracker, cfg config.Feeds) *Registry {
	return NewRegistry(
		NewProductHandler(cat, pricer, tracker, cfg.PageSize),
		NewCategoryHandler(cat, tracker, cfg.PageSize),
		NewBrandHandler(cat, tracker, cfg.BrandFeedEnabled, cfg.BrandParentCategory, cfg.PageSize),
		NewUserHandler(cat, tracker, cfg.PageSize),
		NewOrderHandler(cat, tracker, cfg.PageSize),
	)
}
