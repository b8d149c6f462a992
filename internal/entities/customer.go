package entities

import (
	"time"
)

// Customer is an exported storefront account (the "user" feed).
type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StoreID   int        `gorm:"index" json:"store_id"`
	Email     string     `gorm:"size:255;index" json:"email"`
	FirstName string     `gorm:"size:255" json:"first_name"`
	LastName  string     `gorm:"size:255" json:"last_name"`
	City      string     `gorm:"size:255" json:"city"`
	Country   string     `gorm:"size:2" json:"country"`
	Gender    string     `gorm:"size:16" json:"gender"`
	DOB       *time.Time `json:"dob,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
