package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	// PurchaseRequested records intent only; stock is untouched.
	PurchaseRequested PurchaseStatus = "requested"
	// PurchaseReceived means the goods arrived and stock was incremented.
	PurchaseReceived PurchaseStatus = "received"
)

func (s PurchaseStatus) Valid() bool {
	return s == PurchaseRequested || s == PurchaseReceived
}

type PurchaseSource string

const (
	SourceManual PurchaseSource = "manual"
	SourceAuto   PurchaseSource = "auto"
)

type Purchase struct {
	BaseModel
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	PurchaseDate time.Time       `gorm:"not null;index" json:"purchase_date"`
	Total        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total"`
	Status       PurchaseStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	Source       PurchaseSource  `gorm:"type:varchar(10);not null;default:'manual'" json:"source"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	Lines        []PurchaseLine  `gorm:"foreignKey:PurchaseID" json:"lines,omitempty"`
}

type PurchaseLine struct {
	BaseModel
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	LineNo     int             `gorm:"not null" json:"line_no"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_cost"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"subtotal"`
}

type PurchaseFilter struct {
	SupplierID *uuid.UUID
	Status     PurchaseStatus
}
