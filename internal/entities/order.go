package entities

import (
	"time"
)

// Order statuses exported by the order feed. Only completed orders are fed.
const (
	OrderStatusPending  = "pending"
	OrderStatusComplete = "complete"
	OrderStatusCanceled = "canceled"
)

type Order struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StoreID     int       `gorm:"index" json:"store_id"`
	IncrementID string    `gorm:"size:32;uniqueIndex" json:"increment_id"`
	CustomerID  *uint     `json:"customer_id,omitempty"`
	Email       string    `gorm:"size:255" json:"email"`
	Status      string    `gorm:"size:32;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "sales_orders"
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index" json:"order_id"`
	ProductID uint    `json:"product_id"`
	SKU       string  `gorm:"size:64" json:"sku"`
	Qty       float64 `json:"qty"`
	Price     float64 `json:"price"`
}

func (OrderItem) TableName() string {
	return "sales_order_items"
}
