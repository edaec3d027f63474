package model

import (
	"math"
	"time"
)

// Sale records a client buying a quantity of a product. Rows are never updated.
type Sale struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ClientID   uint      `json:"client_id" gorm:"index;not null"`
	ProductID  uint      `json:"product_id" gorm:"index;not null"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	UnitPrice  float64   `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice float64   `json:"total_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LineTotal multiplies a unit price by a quantity, rounded to cents
func LineTotal(unitPrice float64, quantity int) float64 {
	return math.Round(unitPrice*float64(quantity)*100) / 100
}
