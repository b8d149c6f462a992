package entities

// Attribute kinds. Each kind resolves raw stored values to display values
// differently: selects map option IDs to labels, booleans map to Yes/No,
// text and numeric pass through.
const (
	AttributeKindSelect      = "select"
	AttributeKindMultiSelect = "multiselect"
	AttributeKindBoolean     = "boolean"
	AttributeKindText        = "text"
	AttributeKindNumeric     = "numeric"
)

// AttributeDefinition describes one runtime-discovered product attribute
// included in the feed's dynamic attribute set.
type AttributeDefinition struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Code          string `gorm:"size:64;uniqueIndex" json:"code"`
	Label         string `gorm:"size:255" json:"label"`
	Kind          string `gorm:"size:16" json:"kind"`
	IncludeInFeed bool   `gorm:"index" json:"include_in_feed"`

	Options []AttributeOption `gorm:"foreignKey:AttributeID" json:"options,omitempty"`
}

func (AttributeDefinition) TableName() string {
	return "catalog_attributes"
}

// AttributeOption maps a stored option value to its display label.
type AttributeOption struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AttributeID uint   `gorm:"index" json:"attribute_id"`
	Value       string `gorm:"size:255" json:"value"`
	Label       string `gorm:"size:255" json:"label"`
}

func (AttributeOption) TableName() string {
	return "catalog_attribute_options"
}

// ProductAttributeValue holds one raw attribute value for a product.
// Multiselect values are comma-separated option values.
type ProductAttributeValue struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	ProductID     uint   `gorm:"index" json:"product_id"`
	AttributeCode string `gorm:"size:64;index" json:"attribute_code"`
	Value         string `gorm:"size:512" json:"value"`
}

func (ProductAttributeValue) TableName() string {
	return "catalog_product_attribute_values"
}
