package entities

import (
	"time"
)

// Category is a catalog category. Brands are categories parented by the
// configured brand parent category.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StoreID     int    `gorm:"index" json:"store_id"`
	ParentID    *uint  `gorm:"index" json:"parent_id,omitempty"`
	Name        string `gorm:"size:255" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	URL         string `gorm:"size:512" json:"url"`

	// ImageURL is the primary image; OverrideImageURL is a per-category
	// override used by the feed before falling back to store defaults.
	ImageURL         string `gorm:"size:512" json:"image_url"`
	OverrideImageURL string `gorm:"size:512" json:"override_image_url"`

	ExcludeFromRecommenders bool      `json:"exclude_from_recommenders"`
	Active                  bool      `gorm:"index" json:"active"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "catalog_categories"
}
