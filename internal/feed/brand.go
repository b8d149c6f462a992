package feed

import (
	"log"
	"math"
	"strconv"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// BrandHandler is the brand feed plugin. Brands are the children of a
// configured brand parent category; a misconfigured parent disables the feed
// entirely regardless of the feature flag.
type BrandHandler struct {
	enabled        bool
	parentCategory int
	data           *brandData
	rows           *brandRows
}

func NewBrandHandler(cat *catalog.Catalog, tracker *runstate.Tracker, enabled bool, parentCategory, pageSize int) *BrandHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &BrandHandler{
		enabled:        enabled,
		parentCategory: parentCategory,
		data:           &brandData{catalog: cat, tracker: tracker, parentCategory: parentCategory, pageSize: pageSize},
		rows:           &brandRows{},
	}
}

func (h *BrandHandler) FeedType() string { return TypeBrand }

// IsEnabled requires both the feature flag and a configured parent category.
func (h *BrandHandler) IsEnabled(storeID int) bool {
	if h.parentCategory <= 0 {
		return false
	}
	return h.enabled
}

func (h *BrandHandler) RequiresEmulation() bool { return false }

func (h *BrandHandler) DataHandler() DataHandler { return h.data }

func (h *BrandHandler) RowHandler() RowHandler { return h.rows }

type brandData struct {
	catalog        *catalog.Catalog
	tracker        *runstate.Tracker
	parentCategory int
	pageSize       int
}

func (d *brandData) PageSize() int { return d.pageSize }

func (d *brandData) TotalPages(scope *catalog.Scope) int {
	count, err := d.catalog.CountBrands(scope.StoreID(), uint(d.parentCategory))
	if err != nil {
		log.Printf("Brand feed: failed to count brands for store %d: %v", scope.StoreID(), err)
		d.tracker.SetFeedError(TypeBrand, scope.StoreID(), err.Error())
		return 0
	}
	return int(math.Ceil(float64(count) / float64(d.pageSize)))
}

func (d *brandData) PageData(scope *catalog.Scope, page int) []Entity {
	brands, err := d.catalog.BrandsPage(scope.StoreID(), uint(d.parentCategory), page, d.pageSize)
	if err != nil {
		log.Printf("Brand feed: failed to load page %d for store %d: %v", page, scope.StoreID(), err)
		d.tracker.SetFeedError(TypeBrand, scope.StoreID(), err.Error())
		return nil
	}
	result := make([]Entity, len(brands))
	for i := range brands {
		result[i] = &brands[i]
	}
	return result
}

type brandRows struct{}

func (r *brandRows) RowData(scope *catalog.Scope, entity Entity) Row {
	brand, ok := entity.(*entities.Category)
	if !ok {
		log.Printf("Brand feed: unexpected entity type %T", entity)
		return Row{}
	}

	row := Row{
		"Id":          strconv.FormatUint(uint64(brand.ID), 10),
		"DisplayName": brand.Name,
		"Link":        StripProtocol(brand.URL),
		"Image": imageWithFallback(brand.ImageURL, brand.OverrideImageURL,
			scope.PlaceholderImageURL, scope.SecondaryImageURL),
	}
	if brand.Description != "" {
		row["Description"] = StripHTML(brand.Description)
	}
	if brand.ExcludeFromRecommenders {
		row["ExcludeFromRecommenders"] = true
	}
	return row
}
