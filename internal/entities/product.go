package entities

import (
	"time"
)

// Product type identifiers, mirroring the catalog's type system.
const (
	ProductTypeSimple       = "simple"
	ProductTypeConfigurable = "configurable"
	ProductTypeGrouped      = "grouped"
	ProductTypeBundle       = "bundle"
	ProductTypeVirtual      = "virtual"
)

// Product visibility levels. Products excluded from search keep their rows
// but are flagged so the remote service can exclude them from search results.
const (
	VisibilityNotVisible    = 1
	VisibilityInCatalog     = 2
	VisibilityInSearch      = 3
	VisibilityCatalogSearch = 4
)

type Product struct {
	ID               uint     `gorm:"primaryKey" json:"id"`
	StoreID          int      `gorm:"index" json:"store_id"`
	SKU              string   `gorm:"size:64;index" json:"sku"`
	Name             string   `gorm:"size:255" json:"name"`
	Description      string   `gorm:"type:text" json:"description"`
	ShortDescription string   `gorm:"type:text" json:"short_description"`
	TypeID           string   `gorm:"size:16;index" json:"type_id"`
	Visibility       int      `json:"visibility"`
	Enabled          bool     `gorm:"index" json:"enabled"`
	URL              string   `gorm:"size:512" json:"url"`
	Price            float64  `json:"price"`
	SpecialPrice     *float64 `json:"special_price,omitempty"`
	BrandCategoryID  *uint    `json:"brand_category_id,omitempty"`
	ImageURL         string   `gorm:"size:512" json:"image_url"`
	OverlayImageURL  string   `gorm:"size:512" json:"overlay_image_url"`
	InStock          bool     `json:"in_stock"`
	StockQty         float64  `json:"stock_qty"`

	// Storefront attribute flags used by the feed
	SearchTags              string `gorm:"size:512" json:"search_tags"` // comma-separated
	ExcludeFromRecommenders bool   `json:"exclude_from_recommenders"`
	NewArrival              bool   `json:"new_arrival"`
	OnOffer                 bool   `json:"on_offer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GalleryImages   []ProductImage          `gorm:"foreignKey:ProductID" json:"gallery_images,omitempty"`
	CategoryLinks   []ProductCategory       `gorm:"foreignKey:ProductID" json:"category_links,omitempty"`
	AttributeValues []ProductAttributeValue `gorm:"foreignKey:ProductID" json:"attribute_values,omitempty"`
}

func (Product) TableName() string {
	return "catalog_products"
}

// ProductImage is one gallery entry; Position 0 with no primary ImageURL
// means the placeholder applies.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"index" json:"product_id"`
	URL       string `gorm:"size:512" json:"url"`
	Position  int    `json:"position"`
}

func (ProductImage) TableName() string {
	return "catalog_product_images"
}

type ProductCategory struct {
	ProductID  uint `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	CategoryID uint `gorm:"primaryKey;autoIncrement:false" json:"category_id"`
}

func (ProductCategory) TableName() string {
	return "catalog_product_categories"
}

// ProductLink associates a composite product (configurable/grouped) with its
// child products.
type ProductLink struct {
	ParentID uint `gorm:"primaryKey;autoIncrement:false;index" json:"parent_id"`
	ChildID  uint `gorm:"primaryKey;autoIncrement:false" json:"child_id"`
}

func (ProductLink) TableName() string {
	return "catalog_product_links"
}

// BundleSelection is one selectable option of a bundle product. Required
// selections contribute to the bundle's minimum price; every selection
// contributes to the maximum.
type BundleSelection struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	BundleID  uint    `gorm:"index" json:"bundle_id"`
	ProductID uint    `json:"product_id"`
	Qty       float64 `json:"qty"`
	Required  bool    `json:"required"`
}

func (BundleSelection) TableName() string {
	return "catalog_bundle_selections"
}
