package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is the header of a completed sale. Sales are immutable once
// recorded; a correction is a new transaction.
type Sale struct {
	BaseModel
	CashierID     string          `gorm:"type:varchar(64);not null;index" json:"cashier_id"`
	SoldAt        time.Time       `gorm:"not null;index" json:"sold_at"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	Lines         []SaleLine      `gorm:"foreignKey:SaleID" json:"lines,omitempty"`
}

type SaleLine struct {
	BaseModel
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	LineNo    int             `gorm:"not null" json:"line_no"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
}

// SaleFilter narrows listSales. Date selects one calendar day in the
// configured time zone.
type SaleFilter struct {
	CashierID string
	Date      *time.Time
}
