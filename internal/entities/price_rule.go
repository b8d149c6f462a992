package entities

import (
	"time"
)

// Catalog rule discount actions.
const (
	RuleActionByPercent = "by_percent"
	RuleActionByFixed   = "by_fixed"
)

// CatalogRule is an active catalog price rule. Simple products apply the
// first matching active rule to compute their sale price.
type CatalogRule struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:255" json:"name"`
	Active         bool       `gorm:"index" json:"active"`
	SimpleAction   string     `gorm:"size:16" json:"simple_action"`
	DiscountAmount float64    `json:"discount_amount"`
	FromDate       *time.Time `json:"from_date,omitempty"`
	ToDate         *time.Time `json:"to_date,omitempty"`
}

func (CatalogRule) TableName() string {
	return "catalog_rules"
}

// CatalogRuleProduct scopes a rule to specific products.
type CatalogRuleProduct struct {
	RuleID    uint `gorm:"primaryKey;autoIncrement:false" json:"rule_id"`
	ProductID uint `gorm:"primaryKey;autoIncrement:false;index" json:"product_id"`
}

func (CatalogRuleProduct) TableName() string {
	return "catalog_rule_products"
}
