package repository

import (
	"context"

	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	FindAll(ctx context.Context) ([]model.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByName(ctx context.Context, name string) (*model.Supplier, error)
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasPurchases(ctx context.Context, id uuid.UUID) (bool, error)

	// Unit-of-work methods
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Supplier, error)
	EnsureByName(tx *gorm.DB, supplier *model.Supplier) (*model.Supplier, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepo) FindAll(ctx context.Context) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByName(ctx context.Context, name string) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	res := r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", supplier.ID).
		Select("name", "contact", "address", "payment_terms", "updated_by", "updated_at").
		Updates(supplier)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *supplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Supplier{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *supplierRepo) HasPurchases(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).Where("supplier_id = ?", id).Count(&n).Error
	return n > 0, err
}

// LockByID loads the supplier and holds its row lock until the transaction
// ends. Replenishment runs targeting the same supplier serialize on it.
func (r *supplierRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// EnsureByName inserts supplier unless one with the same name exists, then
// returns the stored row locked. The unique index on name plus ON CONFLICT
// DO NOTHING makes concurrent callers converge on a single record.
func (r *supplierRepo) EnsureByName(tx *gorm.DB, supplier *model.Supplier) (*model.Supplier, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(supplier).Error
	if err != nil {
		return nil, err
	}

	var stored model.Supplier
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", supplier.Name).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
