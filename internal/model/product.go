package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock policy constants shared by the sales path, the dashboard and the
// replenishment trigger.
const (
	// ReorderThreshold is the quantity below which a product is low on stock.
	ReorderThreshold = 10
	// RestockTarget is the quantity a replenishment order tops a product up to.
	RestockTarget = 50
	// MaxLineQuantity bounds a single line and the per-product total of one
	// transaction.
	MaxLineQuantity = 1_000_000
)

type Product struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category     *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Stock        int             `gorm:"not null;default:0;index" json:"stock"`
	PurchaseCost decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"purchase_cost"`
	SalePrice    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"sale_price"`
	BatchNumber  *string         `gorm:"type:varchar(64)" json:"batch_number,omitempty"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	Description  string          `gorm:"type:text" json:"description"`
}

// IsLowStock reports whether the product sits under the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Stock < ReorderThreshold
}

// LowStockItem is the compact view returned with sale warnings.
type LowStockItem struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Stock int       `json:"stock"`
}

// ProductFilter narrows listProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID   *uuid.UUID
	CategoryName string
	LowStockOnly bool
}
