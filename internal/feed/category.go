package feed

import (
	"log"
	"math"
	"strconv"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// CategoryHandler is the category feed plugin: a single-pass field mapping
// with the image fallback chain.
type CategoryHandler struct {
	data *categoryData
	rows *categoryRows
}

func NewCategoryHandler(cat *catalog.Catalog, tracker *runstate.Tracker, pageSize int) *CategoryHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CategoryHandler{
		data: &categoryData{catalog: cat, tracker: tracker, pageSize: pageSize},
		rows: &categoryRows{},
	}
}

func (h *CategoryHandler) FeedType() string { return TypeCategory }

func (h *CategoryHandler) IsEnabled(storeID int) bool { return true }

func (h *CategoryHandler) RequiresEmulation() bool { return false }

func (h *CategoryHandler) DataHandler() DataHandler { return h.data }

func (h *CategoryHandler) RowHandler() RowHandler { return h.rows }

type categoryData struct {
	catalog  *catalog.Catalog
	tracker  *runstate.Tracker
	pageSize int
}

func (d *categoryData) PageSize() int { return d.pageSize }

func (d *categoryData) TotalPages(scope *catalog.Scope) int {
	count, err := d.catalog.CountCategories(scope.StoreID())
	if err != nil {
		log.Printf("Category feed: failed to count categories for store %d: %v", scope.StoreID(), err)
		d.tracker.SetFeedError(TypeCategory, scope.StoreID(), err.Error())
		return 0
	}
	return int(math.Ceil(float64(count) / float64(d.pageSize)))
}

func (d *categoryData) PageData(scope *catalog.Scope, page int) []Entity {
	categories, err := d.catalog.CategoriesPage(scope.StoreID(), page, d.pageSize)
	if err != nil {
		log.Printf("Category feed: failed to load page %d for store %d: %v", page, scope.StoreID(), err)
		d.tracker.SetFeedError(TypeCategory, scope.StoreID(), err.Error())
		return nil
	}
	result := make([]Entity, len(categories))
	for i := range categories {
		result[i] = &categories[i]
	}
	return result
}

type categoryRows struct{}

func (r *categoryRows) RowData(scope *catalog.Scope, entity Entity) Row {
	category, ok := entity.(*entities.Category)
	if !ok {
		log.Printf("Category feed: unexpected entity type %T", entity)
		return Row{}
	}

	row := Row{
		"Id":          strconv.FormatUint(uint64(category.ID), 10),
		"DisplayName": category.Name,
		"Link":        StripProtocol(category.URL),
		"Image": imageWithFallback(category.ImageURL, category.OverrideImageURL,
			scope.PlaceholderImageURL, scope.SecondaryImageURL),
	}
	if category.Description != "" {
		row["Description"] = StripHTML(category.Description)
	}
	if category.ParentID != nil {
		row["ParentIds"] = []string{strconv.FormatUint(uint64(*category.ParentID), 10)}
	}
	if category.ExcludeFromRecommenders {
		row["ExcludeFromRecommenders"] = true
	}
	return row
}
