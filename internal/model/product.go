package model

import (
	"time"
)

// Product represents the product master data.
// IsActive must not get a column default: GORM omits zero values of defaulted
// columns on insert, so an inactive product would be stored as active.
type Product struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Description *string   `json:"description" gorm:"type:text"`
	SKU         string    `json:"sku" gorm:"type:varchar(255);uniqueIndex;not null"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	IsActive    bool      `json:"is_active" gorm:"not null;index"`
	Sales       []Sale    `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EnforceStockRule deactivates a product whose stock is exhausted
func (p *Product) EnforceStockRule() {
	if p.Quantity == 0 {
		p.IsActive = false
	}
}
