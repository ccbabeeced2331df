package repository

import (
	"context"
	"time"

	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindAll(ctx context.Context, filter model.PurchaseFilter) ([]model.Purchase, error)

	// Unit-of-work methods
	Create(tx *gorm.DB, purchase *model.Purchase) error
	FindHeader(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error)
	FindLines(tx *gorm.DB, purchaseID uuid.UUID) ([]model.PurchaseLine, error)
	MarkReceived(tx *gorm.DB, id uuid.UUID, at time.Time, updatedBy string) (bool, error)
	PendingQuantities(tx *gorm.DB, productIDs []uuid.UUID) (map[uuid.UUID]int, error)
	LockReplenishment(tx *gorm.DB) error
}

// replenishLockKey names the transaction-scoped advisory lock held by every
// replenishment run, whatever supplier it orders from.
const replenishLockKey int64 = 0x7665_7470_6f73

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) Create(tx *gorm.DB, purchase *model.Purchase) error {
	if err := tx.Omit(clause.Associations).Create(purchase).Error; err != nil {
		return err
	}
	for i := range purchase.Lines {
		purchase.Lines[i].PurchaseID = purchase.ID
	}
	if len(purchase.Lines) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&purchase.Lines).Error
}

func (r *purchaseRepo) FindHeader(tx *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := tx.First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) FindLines(tx *gorm.DB, purchaseID uuid.UUID) ([]model.PurchaseLine, error) {
	var lines []model.PurchaseLine
	err := tx.Where("purchase_id = ?", purchaseID).Order("line_no ASC").Find(&lines).Error
	return lines, err
}

// MarkReceived moves a requested purchase to received. The status guard in
// the WHERE clause makes the transition happen at most once: a second caller
// (or a concurrent one blocked on the same row) sees zero affected rows.
func (r *purchaseRepo) MarkReceived(tx *gorm.DB, id uuid.UUID, at time.Time, updatedBy string) (bool, error) {
	res := tx.Model(&model.Purchase{}).
		Where("id = ? AND status = ?", id, model.PurchaseRequested).
		Updates(map[string]interface{}{
			"status":      model.PurchaseReceived,
			"received_at": at,
			"updated_by":  updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LockReplenishment blocks until no other replenishment transaction holds
// the lock; it is released at commit or rollback. SQLite serializes writers
// on its own and needs no lock.
func (r *purchaseRepo) LockReplenishment(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", replenishLockKey).Error
}

// PendingQuantities sums the quantities already ordered on requested (not
// yet received) purchases, per product.
func (r *purchaseRepo) PendingQuantities(tx *gorm.DB, productIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	pending := make(map[uuid.UUID]int, len(productIDs))
	if len(productIDs) == 0 {
		return pending, nil
	}

	var rows []struct {
		ProductID uuid.UUID
		Quantity  int
	}
	err := tx.Table("purchase_lines").
		Select("purchase_lines.product_id AS product_id, COALESCE(SUM(purchase_lines.quantity), 0) AS quantity").
		Joins("JOIN purchases ON purchases.id = purchase_lines.purchase_id").
		Where("purchases.status = ? AND purchase_lines.product_id IN ?", model.PurchaseRequested, productIDs).
		Group("purchase_lines.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		pending[row.ProductID] = row.Quantity
	}
	return pending, nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Lines", orderByLineNo).
		Preload("Lines.Product").
		First(&purchase, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) FindAll(ctx context.Context, filter model.PurchaseFilter) ([]model.Purchase, error) {
	var purchases []model.Purchase
	db := r.db.WithContext(ctx).Preload("Supplier").Preload("Lines", orderByLineNo)
	if filter.SupplierID != nil {
		db = db.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	err := db.Order("purchase_date DESC, created_at DESC").Find(&purchases).Error
	return purchases, err
}
