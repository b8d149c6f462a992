package entities

import (
	"time"
)

// Store is one storefront scope. Feed runs, state records and catalog
// queries are all scoped by store.
type Store struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Code         string    `gorm:"size:50;uniqueIndex" json:"code"`
	Name         string    `gorm:"size:255" json:"name"`
	BaseURL      string    `gorm:"size:512" json:"base_url"`
	CurrencyCode string    `gorm:"size:3" json:"currency_code"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}
