package model

// SentinelSupplierName is the supplier automatic purchase orders are
// attributed to when the caller does not pick one.
const SentinelSupplierName = "Auto Supplier"

type Supplier struct {
	BaseModel
	// Name is unique at the storage level; replenishment relies on it to
	// find-or-create the sentinel supplier without duplicates.
	Name         string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required,max=255"`
	Contact      string `gorm:"type:varchar(100)" json:"contact"`
	Address      string `gorm:"type:text" json:"address"`
	PaymentTerms string `gorm:"type:varchar(50)" json:"payment_terms"`
}
