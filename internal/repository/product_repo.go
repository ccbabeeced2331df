package repository

import (
	"context"

	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	UpdateDetails(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
	FindLowStock(ctx context.Context, threshold int) ([]model.LowStockItem, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// Unit-of-work methods: they run on the caller's transaction.
	LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error)
	FindByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error)
	FindBelowThreshold(tx *gorm.DB, threshold int) ([]model.Product, error)
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Preload("Category")
	if filter.CategoryID != nil {
		q = q.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.CategoryName != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.name = ?", filter.CategoryName)
	}
	if filter.LowStockOnly {
		q = q.Where("products.stock < ?", model.ReorderThreshold)
	}
	err := q.Order("products.name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateDetails writes master data only. Stock is owned by the ledger and is
// never part of this update.
func (r *productRepo) UpdateDetails(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", product.ID).
		Select("name", "category_id", "purchase_cost", "sale_price", "batch_number", "expiry_date", "description", "updated_by", "updated_at").
		Updates(product)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IsReferenced reports whether any sale or purchase line points at the product.
func (r *productRepo) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	var n int64
	if err := db.Model(&model.SaleLine{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := db.Model(&model.PurchaseLine{}).Where("product_id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *productRepo) FindLowStock(ctx context.Context, threshold int) ([]model.LowStockItem, error) {
	var items []model.LowStockItem
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("id", "name", "stock").
		Where("stock < ?", threshold).
		Order("stock ASC, name ASC").
		Scan(&items).Error
	return items, err
}

func (r *productRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&n).Error
	return n, err
}

// LockByIDs loads the products with a row lock (SELECT ... FOR UPDATE).
// Rows are locked in ascending id order so concurrent transactions touching
// overlapping products serialize instead of deadlocking.
func (r *productRepo) LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) FindByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := tx.Where("id IN ?", ids).Order("id ASC").Find(&products).Error
	return products, err
}

// FindBelowThreshold returns the products under threshold, most depleted
// first. Name and id break ties so the order is deterministic.
func (r *productRepo) FindBelowThreshold(tx *gorm.DB, threshold int) ([]model.Product, error) {
	var products []model.Product
	err := tx.Where("stock < ?", threshold).
		Order("stock ASC, name ASC, id ASC").
		Find(&products).Error
	return products, err
}

// AdjustStock applies delta to the on-hand quantity in a single statement
// (stock = stock + delta) keyed by primary key.
func (r *productRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error {
	res := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
