package catalog

import (
	"time"

	"gorm.io/gorm"

	"github.com/pureclarity/feedsync/internal/entities"
)

// Catalog wraps read access to the commerce tables with LIMIT/OFFSET
// pagination. Pages are 1-indexed.
type Catalog struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func offsetFor(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// CountProducts returns the number of enabled products in a store.
func (c *Catalog) CountProducts(storeID int) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Product{}).
		Where("store_id = ? AND enabled = ?", storeID, true).
		Count(&count).Error
	return count, err
}

// ProductsPage returns one page of enabled products with gallery, category
// and attribute rows preloaded.
func (c *Catalog) ProductsPage(storeID, page, pageSize int) ([]entities.Product, error) {
	var products []entities.Product
	err := c.db.Preload("GalleryImages", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("CategoryLinks").Preload("AttributeValues").
		Where("store_id = ? AND enabled = ?", storeID, true).
		Order("id ASC").
		Limit(pageSize).Offset(offsetFor(page, pageSize)).
		Find(&products).Error
	return products, err
}

// CountProductsUpdatedSince counts enabled products touched after a cutoff.
// Used by the delta trigger to decide whether a product feed re-run is due.
func (c *Catalog) CountProductsUpdatedSince(storeID int, since time.Time) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Product{}).
		Where("store_id = ? AND enabled = ? AND updated_at > ?", storeID, true, since).
		Count(&count).Error
	return count, err
}

// ChildProducts returns the linked children of a configurable or grouped
// product, including disabled ones; callers filter on Enabled.
func (c *Catalog) ChildProducts(parentID uint) ([]entities.Product, error) {
	var children []entities.Product
	err := c.db.Preload("AttributeValues").
		Joins("JOIN catalog_product_links ON catalog_product_links.child_id = catalog_products.id").
		Where("catalog_product_links.parent_id = ?", parentID).
		Order("catalog_products.id ASC").
		Find(&children).Error
	return children, err
}

// BundleSelections returns a bundle's selectable options.
func (c *Catalog) BundleSelections(bundleID uint) ([]entities.BundleSelection, error) {
	var selections []entities.BundleSelection
	err := c.db.Where("bundle_id = ?", bundleID).Order("id ASC").Find(&selections).Error
	return selections, err
}

// GetProduct loads one product by ID.
func (c *Catalog) GetProduct(id uint) (*entities.Product, error) {
	var product entities.Product
	err := c.db.First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CountCategories returns the number of active categories in a store.
func (c *Catalog) CountCategories(storeID int) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Category{}).
		Where("store_id = ? AND active = ?", storeID, true).
		Count(&count).Error
	return count, err
}

// CategoriesPage returns one page of active categories.
func (c *Catalog) CategoriesPage(storeID, page, pageSize int) ([]entities.Category, error) {
	var categories []entities.Category
	err := c.db.Where("store_id = ? AND active = ?", storeID, true).
		Order("id ASC").
		Limit(pageSize).Offset(offsetFor(page, pageSize)).
		Find(&categories).Error
	return categories, err
}

// GetCategory loads one category by ID.
func (c *Catalog) GetCategory(id uint) (*entities.Category, error) {
	var category entities.Category
	err := c.db.First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CategoryNames resolves category IDs to names, skipping unknown IDs.
func (c *Catalog) CategoryNames(ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []entities.Category
	err := c.db.Where("id IN ?", ids).Order("id ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return names, nil
}

// CountBrands counts the active children of the brand parent category.
func (c *Catalog) CountBrands(storeID int, parentID uint) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Category{}).
		Where("store_id = ? AND active = ? AND parent_id = ?", storeID, true, parentID).
		Count(&count).Error
	return count, err
}

// BrandsPage returns one page of brand categories.
func (c *Catalog) BrandsPage(storeID int, parentID uint, page, pageSize int) ([]entities.Category, error) {
	var brands []entities.Category
	err := c.db.Where("store_id = ? AND active = ? AND parent_id = ?", storeID, true, parentID).
		Order("id ASC").
		Limit(pageSize).Offset(offsetFor(page, pageSize)).
		Find(&brands).Error
	return brands, err
}

// CountCustomers returns the number of customers in a store.
func (c *Catalog) CountCustomers(storeID int) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Customer{}).Where("store_id = ?", storeID).Count(&count).Error
	return count, err
}

// CustomersPage returns one page of customers.
func (c *Catalog) CustomersPage(storeID, page, pageSize int) ([]entities.Customer, error) {
	var customers []entities.Customer
	err := c.db.Where("store_id = ?", storeID).
		Order("id ASC").
		Limit(pageSize).Offset(offsetFor(page, pageSize)).
		Find(&customers).Error
	return customers, err
}

// CountOrders returns the number of completed orders in a store.
func (c *Catalog) CountOrders(storeID int) (int64, error) {
	var count int64
	err := c.db.Model(&entities.Order{}).
		Where("store_id = ? AND status = ?", storeID, entities.OrderStatusComplete).
		Count(&count).Error
	return count, err
}

// OrdersPage returns one page of completed orders with their items.
func (c *Catalog) OrdersPage(storeID, page, pageSize int) ([]entities.Order, error) {
	var orders []entities.Order
	err := c.db.Preload("Items").
		Where("store_id = ? AND status = ?", storeID, entities.OrderStatusComplete).
		Order("id ASC").
		Limit(pageSize).Offset(offsetFor(page, pageSize)).
		Find(&orders).Error
	return orders, err
}

// FeedAttributes returns the attribute definitions included in the feed's
// dynamic attribute set, with options preloaded. Loaded once per run and
// cached by the caller.
func (c *Catalog) FeedAttributes() ([]entities.AttributeDefinition, error) {
	var attributes []entities.AttributeDefinition
	err := c.db.Preload("Options").
		Where("include_in_feed = ?", true).
		Order("id ASC").
		Find(&attributes).Error
	return attributes, err
}

// ActiveRuleFor returns the first active catalog price rule scoped to a
// product and valid at the given time, or nil when none applies.
func (c *Catalog) ActiveRuleFor(productID uint, now time.Time) (*entities.CatalogRule, error) {
	var rule entities.CatalogRule
	err := c.db.
		Joins("JOIN catalog_rule_products ON catalog_rule_products.rule_id = catalog_rules.id").
		Where("catalog_rule_products.product_id = ? AND catalog_rules.active = ?", productID, true).
		Where("(catalog_rules.from_date IS NULL OR catalog_rules.from_date <= ?)", now).
		Where("(catalog_rules.to_date IS NULL OR catalog_rules.to_date >= ?)", now).
		Order("catalog_rules.id ASC").
		First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}
