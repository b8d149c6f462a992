package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/entities"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// ProductHandler is the product feed plugin. Product row transformation is
// the heaviest in the pipeline: images, categories, swatches, stock, custom
// attributes, child aggregation and multi-tier pricing.
type ProductHandler struct {
	data *productData
	rows *productRows
}

func NewProductHandler(cat *catalog.Catalog, pricer *catalog.Pricer, tracker *runstate.Tracker, pageSize int) *ProductHandler {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &ProductHandler{
		data: &productData{catalog: cat, tracker: tracker, pageSize: pageSize},
		rows: &productRows{catalog: cat, pricer: pricer, droppedRows: make(map[int]int)},
	}
}

func (h *ProductHandler) FeedType() string { return TypeProduct }

func (h *ProductHandler) IsEnabled(storeID int) bool { return true }

// RequiresEmulation is true: price and URL rendering is store-scoped and too
// expensive to re-enter per row.
func (h *ProductHandler) RequiresEmulation() bool { return true }

func (h *ProductHandler) DataHandler() DataHandler { return h.data }

func (h *ProductHandler) RowHandler() RowHandler { return h.rows }

// DroppedRows returns how many rows the drop-on-error policy discarded for a
// store since the last reset.
func (h *ProductHandler) DroppedRows(storeID int) int { return h.rows.dropped(storeID) }

// ResetDroppedRows clears a store's dropped-row counter at the start of a
// feed. It also invalidates the attribute cache so each run sees the current
// attribute set.
func (h *ProductHandler) ResetDroppedRows(storeID int) { h.rows.resetDropped(storeID) }

type productData struct {
	catalog  *catalog.Catalog
	tracker  *runstate.Tracker
	pageSize int
}

func (d *productData) PageSize() int { return d.pageSize }

func (d *productData) TotalPages(scope *catalog.Scope) int {
	count, err := d.catalog.CountProducts(scope.StoreID())
	if err != nil {
		log.Printf("Product feed: failed to count products for store %d: %v", scope.StoreID(), err)
		d.tracker.SetFeedError(TypeProduct, scope.StoreID(), err.Error())
		return 0
	}
	return int(math.Ceil(float64(count) / float64(d.pageSize)))
}

func (d *productData) PageData(scope *catalog.Scope, page int) []Entity {
	products, err := d.catalog.ProductsPage(scope.StoreID(), page, d.pageSize)
	if err != nil {
		log.Printf("Product feed: failed to load page %d for store %d: %v", page, scope.StoreID(), err)
		d.tracker.SetFeedError(TypeProduct, scope.StoreID(), err.Error())
		return nil
	}
	entities := make([]Entity, len(products))
	for i := range products {
		entities[i] = &products[i]
	}
	return entities
}

type productRows struct {
	catalog *catalog.Catalog
	pricer  *catalog.Pricer

	mu           sync.Mutex
	attributes   []entities.AttributeDefinition
	attributesOK bool
	droppedRows  map[int]int
}

// RowData builds the export row for one product. Any failure discards the
// whole row: a partially populated product must never reach the export.
func (r *productRows) RowData(scope *catalog.Scope, entity Entity) Row {
	product, ok := entity.(*entities.Product)
	if !ok {
		log.Printf("Product feed: unexpected entity type %T", entity)
		r.countDropped(scope.StoreID())
		return Row{}
	}

	row, err := r.buildRow(scope, product)
	if err != nil {
		log.Printf("Product feed: dropping product %d (%s): %v", product.ID, product.SKU, err)
		r.countDropped(scope.StoreID())
		return Row{}
	}
	return row
}

func (r *productRows) buildRow(scope *catalog.Scope, product *entities.Product) (Row, error) {
	row := Row{
		"Id":    strconv.FormatUint(uint64(product.ID), 10),
		"Sku":   product.SKU,
		"Title": product.Name,
		"Link":  StripProtocol(scope.ResolveURL(product.URL)),
	}
	if product.Description != "" {
		row["Description"] = StripHTML(product.Description)
	}
	if product.ShortDescription != "" {
		row["ShortDescription"] = StripHTML(product.ShortDescription)
	}

	r.addImages(row, scope, product)

	if err := r.addCategories(row, product); err != nil {
		return nil, err
	}
	if err := r.addSwatches(row, product); err != nil {
		return nil, err
	}

	// Products hidden from search keep their rows but are flagged out of
	// search results.
	if product.Visibility == entities.VisibilityNotVisible || product.Visibility == entities.VisibilityInCatalog {
		row["ExcludeFromSearch"] = true
	}

	if err := r.addBrand(row, product); err != nil {
		return nil, err
	}

	r.addStorefrontFlags(row, scope, product)

	if err := r.addDynamicAttributes(row, product); err != nil {
		return nil, err
	}
	if err := r.addChildData(row, product); err != nil {
		return nil, err
	}
	if err := r.addPrices(row, scope, product); err != nil {
		return nil, err
	}

	return row, nil
}

func (r *productRows) addImages(row Row, scope *catalog.Scope, product *entities.Product) {
	row["Image"] = imageWithFallback(scope.ResolveURL(product.ImageURL), "",
		scope.PlaceholderImageURL, scope.SecondaryImageURL)

	if len(product.GalleryImages) > 0 {
		gallery := make([]string, 0, len(product.GalleryImages))
		for _, img := range product.GalleryImages {
			gallery = append(gallery, StripProtocol(scope.ResolveURL(img.URL)))
		}
		row["AllImages"] = gallery
	}
}

func (r *productRows) addCategories(row Row, product *entities.Product) error {
	if len(product.CategoryLinks) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(product.CategoryLinks))
	for _, link := range product.CategoryLinks {
		ids = append(ids, link.CategoryID)
	}
	names, err := r.catalog.CategoryNames(ids)
	if err != nil {
		return fmt.Errorf("failed to resolve categories: %w", err)
	}
	if len(names) > 0 {
		row["Categories"] = names
	}
	return nil
}

// addSwatches builds the configurable swatch JSON from the children's select
// attribute option labels.
func (r *productRows) addSwatches(row Row, product *entities.Product) error {
	if product.TypeID != entities.ProductTypeConfigurable {
		return nil
	}
	children, err := r.catalog.ChildProducts(product.ID)
	if err != nil {
		return fmt.Errorf("failed to load children for swatches: %w", err)
	}
	attributes, err := r.feedAttributes()
	if err != nil {
		return err
	}

	byCode := make(map[string]*entities.AttributeDefinition, len(attributes))
	for i := range attributes {
		byCode[attributes[i].Code] = &attributes[i]
	}

	swatches := make(map[string][]string)
	for _, child := range children {
		if !child.Enabled {
			continue
		}
		for _, value := range child.AttributeValues {
			def, ok := byCode[value.AttributeCode]
			if !ok || def.Kind != entities.AttributeKindSelect {
				continue
			}
			label := resolveOptionLabel(def, value.Value)
			if !containsString(swatches[def.Label], label) {
				swatches[def.Label] = append(swatches[def.Label], label)
			}
		}
	}
	if len(swatches) == 0 {
		return nil
	}

	payload, err := json.Marshal(swatches)
	if err != nil {
		return fmt.Errorf("failed to encode swatches: %w", err)
	}
	row["Swatches"] = string(payload)
	return nil
}

func (r *productRows) addBrand(row Row, product *entities.Product) error {
	if product.BrandCategoryID == nil {
		return nil
	}
	brand, err := r.catalog.GetCategory(*product.BrandCategoryID)
	if err != nil {
		return fmt.Errorf("failed to resolve brand category %d: %w", *product.BrandCategoryID, err)
	}
	row["Brand"] = brand.Name
	return nil
}

func (r *productRows) addStorefrontFlags(row Row, scope *catalog.Scope, product *entities.Product) {
	for _, tag := range SplitSearchTags(product.SearchTags) {
		row.AddAttribute("SearchTags", tag)
	}
	if product.ExcludeFromRecommenders {
		row["ExcludeFromRecommenders"] = true
	}
	if product.NewArrival {
		row["NewArrival"] = true
	}
	if product.OnOffer {
		row["OnOffer"] = true
	}
	if product.OverlayImageURL != "" {
		row["ImageOverlay"] = StripProtocol(product.OverlayImageURL)
	}

	row["InStock"] = product.InStock
	if !product.InStock && scope.ExcludeOutOfStock {
		row["ExcludeFromRecommenders"] = true
	}
}

// addDynamicAttributes resolves the runtime-discovered attribute set.
// Select and multiselect values resolve to their display labels, booleans to
// Yes/No, text and numeric pass through.
func (r *productRows) addDynamicAttributes(row Row, product *entities.Product) error {
	attributes, err := r.feedAttributes()
	if err != nil {
		return err
	}
	byCode := make(map[string]string, len(product.AttributeValues))
	for _, value := range product.AttributeValues {
		byCode[value.AttributeCode] = value.Value
	}

	for i := range attributes {
		def := &attributes[i]
		raw, ok := byCode[def.Code]
		if !ok || raw == "" {
			continue
		}
		switch def.Kind {
		case entities.AttributeKindSelect:
			row.AddAttribute(def.Label, resolveOptionLabel(def, raw))
		case entities.AttributeKindMultiSelect:
			for _, part := range SplitSearchTags(raw) {
				row.AddAttribute(def.Label, resolveOptionLabel(def, part))
			}
		case entities.AttributeKindBoolean:
			row.AddAttribute(def.Label, boolLabel(raw))
		case entities.AttributeKindText, entities.AttributeKindNumeric:
			row.AddAttribute(def.Label, raw)
		default:
			return fmt.Errorf("unknown attribute kind %q for %s", def.Kind, def.Code)
		}
	}
	return nil
}

// addChildData merges associated SKUs, titles, descriptions and search tags
// from a composite product's enabled children, without duplication.
func (r *productRows) addChildData(row Row, product *entities.Product) error {
	if product.TypeID != entities.ProductTypeConfigurable && product.TypeID != entities.ProductTypeGrouped {
		return nil
	}
	children, err := r.catalog.ChildProducts(product.ID)
	if err != nil {
		return fmt.Errorf("failed to load child products: %w", err)
	}
	for _, child := range children {
		if !child.Enabled {
			continue
		}
		row.AddAttribute("AssociatedSkus", child.SKU)
		row.AddAttribute("AssociatedTitles", child.Name)
		if child.Description != "" {
			row.AddAttribute("AssociatedDescriptions", StripHTML(child.Description))
		}
		for _, tag := range SplitSearchTags(child.SearchTags) {
			row.AddAttribute("SearchTags", tag)
		}
	}
	return nil
}

func (r *productRows) addPrices(row Row, scope *catalog.Scope, product *entities.Product) error {
	prices, err := r.pricer.ProductPrices(product, time.Now())
	if err != nil {
		return fmt.Errorf("failed to calculate prices: %w", err)
	}

	currency := scope.Store.CurrencyCode
	row["Prices"] = priceStrings(prices.ListMin, prices.ListMax, currency)
	if prices.OnSale() {
		row["SalePrices"] = priceStrings(prices.FinalMin, prices.FinalMax, currency)
	}
	return nil
}

func (r *productRows) feedAttributes() ([]entities.AttributeDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attributesOK {
		return r.attributes, nil
	}
	attributes, err := r.catalog.FeedAttributes()
	if err != nil {
		return nil, fmt.Errorf("failed to load feed attributes: %w", err)
	}
	r.attributes = attributes
	r.attributesOK = true
	return attributes, nil
}

func (r *productRows) countDropped(storeID int) {
	r.mu.Lock()
	r.droppedRows[storeID]++
	r.mu.Unlock()
}

func (r *productRows) dropped(storeID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.droppedRows[storeID]
}

func (r *productRows) resetDropped(storeID int) {
	r.mu.Lock()
	delete(r.droppedRows, storeID)
	r.attributesOK = false
	r.mu.Unlock()
}

func resolveOptionLabel(def *entities.AttributeDefinition, value string) string {
	for _, option := range def.Options {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}

func boolLabel(raw string) string {
	if raw == "1" || raw == "true" || raw == "yes" {
		return "Yes"
	}
	return "No"
}

func priceStrings(min, max float64, currency string) []string {
	if min == max {
		return []string{formatPrice(min, currency)}
	}
	return []string{formatPrice(min, currency), formatPrice(max, currency)}
}

func formatPrice(amount float64, currency string) string {
	return strconv.FormatFloat(amount, 'f', 2, 64) + " " + currency
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
