package repository

import (
	"context"
	"time"

	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository serves the read-side projections behind the dashboard.
// Nothing here takes locks or writes.
type ReportRepository interface {
	InventoryStats(ctx context.Context) (*InventoryStats, error)
	SalesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error)
	SaleMovements(ctx context.Context, from time.Time) ([]Movement, error)
	ReceiptMovements(ctx context.Context, from time.Time) ([]Movement, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	ExpiringBefore(ctx context.Context, before time.Time) ([]model.Product, error)
}

type InventoryStats struct {
	TotalProducts int64           `json:"total_products"`
	LowStockCount int64           `json:"low_stock_count"`
	Valuation     decimal.Decimal `json:"stock_valuation"`
}

// Movement is one ledger entry reduced to its time, units and value.
type Movement struct {
	At    time.Time
	Units int
	Value decimal.Decimal
}

type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Units     int             `json:"units"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) InventoryStats(ctx context.Context) (*InventoryStats, error) {
	var stats InventoryStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Product{}).Where("stock < ?", model.ReorderThreshold).Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	// Valuation at cost; negative balances do not count as value.
	var valuation decimal.NullDecimal
	err := db.Model(&model.Product{}).
		Select("SUM(stock * purchase_cost)").
		Where("stock > 0").
		Scan(&valuation).Error
	if err != nil {
		return nil, err
	}
	if valuation.Valid {
		stats.Valuation = valuation.Decimal
	}
	return &stats, nil
}

func (r *reportRepo) SalesBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, int64, error) {
	var row struct {
		Total decimal.NullDecimal
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("SUM(total) AS total, COUNT(*) AS count").
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, err
	}
	if !row.Total.Valid {
		return decimal.Zero, row.Count, nil
	}
	return row.Total.Decimal, row.Count, nil
}

// SaleMovements returns one entry per sale since from. Bucketing into
// calendar days happens in the caller, in the configured time zone.
func (r *reportRepo) SaleMovements(ctx context.Context, from time.Time) ([]Movement, error) {
	rows, err := r.db.WithContext(ctx).
		Table("sales").
		Select("sales.sold_at, COALESCE(SUM(sale_lines.quantity), 0), sales.total").
		Joins("LEFT JOIN sale_lines ON sale_lines.sale_id = sales.id").
		Where("sales.sold_at >= ?", from).
		Group("sales.id, sales.sold_at, sales.total").
		Order("sales.sold_at ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.At, &m.Units, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReceiptMovements returns one entry per received purchase since from.
func (r *reportRepo) ReceiptMovements(ctx context.Context, from time.Time) ([]Movement, error) {
	rows, err := r.db.WithContext(ctx).
		Table("purchases").
		Select("purchases.received_at, COALESCE(SUM(purchase_lines.quantity), 0), purchases.total").
		Joins("JOIN purchase_lines ON purchase_lines.purchase_id = purchases.id").
		Where("purchases.status = ? AND purchases.received_at >= ?", model.PurchaseReceived, from).
		Group("purchases.id, purchases.received_at, purchases.total").
		Order("purchases.received_at ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.At, &m.Units, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *reportRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var out []TopProduct
	err := r.db.WithContext(ctx).
		Table("sale_lines").
		Select("sale_lines.product_id AS product_id, products.name AS name, SUM(sale_lines.quantity) AS units, SUM(sale_lines.subtotal) AS revenue").
		Joins("JOIN products ON products.id = sale_lines.product_id").
		Group("sale_lines.product_id, products.name").
		Order("units DESC, products.name ASC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *reportRepo) ExpiringBefore(ctx context.Context, before time.Time) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", before).
		Order("expiry_date ASC, name ASC").
		Find(&products).Error
	return products, err
}
