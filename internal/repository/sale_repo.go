package repository

import (
	"context"
	"time"

	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindAll(ctx context.Context, q SaleQuery) ([]model.Sale, error)

	// Unit-of-work methods
	Create(tx *gorm.DB, sale *model.Sale) error
}

// SaleQuery is the storage form of model.SaleFilter: the calendar day has
// already been resolved into a half-open UTC range [From, To).
type SaleQuery struct {
	CashierID string
	From      *time.Time
	To        *time.Time
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

// Create inserts the header and then its lines. Associations are written
// explicitly so the insert order is fixed and a failed line aborts the
// caller's transaction.
func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	if err := tx.Omit(clause.Associations).Create(sale).Error; err != nil {
		return err
	}
	for i := range sale.Lines {
		sale.Lines[i].SaleID = sale.ID
	}
	if len(sale.Lines) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&sale.Lines).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines", orderByLineNo).
		Preload("Lines.Product").
		First(&sale, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindAll(ctx context.Context, q SaleQuery) ([]model.Sale, error) {
	var sales []model.Sale
	db := r.db.WithContext(ctx).Preload("Lines", orderByLineNo)
	if q.CashierID != "" {
		db = db.Where("cashier_id = ?", q.CashierID)
	}
	if q.From != nil {
		db = db.Where("sold_at >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("sold_at < ?", *q.To)
	}
	err := db.Order("sold_at DESC").Find(&sales).Error
	return sales, err
}

func orderByLineNo(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}
