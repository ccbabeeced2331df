package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultPaymentMethod = "cash"

type SaleLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=1000000"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0,money"`
}

// SaleInput is what a till submits. Total is optional; when present it must
// match the total computed from the lines.
type SaleInput struct {
	Lines         []SaleLineInput  `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod string           `json:"payment_method" validate:"max=20"`
	Total         *decimal.Decimal `json:"total,omitempty"`
}

type SaleResult struct {
	TransactionID    uuid.UUID            `json:"transaction_id"`
	Total            decimal.Decimal      `json:"total"`
	SoldAt           time.Time            `json:"sold_at"`
	LowStockWarnings []model.LowStockItem `json:"low_stock_warnings"`
	// WarningsUnavailable is set when the sale committed but the low-stock
	// read afterwards failed.
	WarningsUnavailable bool                 `json:"warnings_unavailable,omitempty"`
	Oversold            []model.LowStockItem `json:"oversold,omitempty"`
}

type SalesService interface {
	RecordSale(ctx context.Context, actor Actor, in SaleInput) (*SaleResult, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	ListSales(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error)
}

type SalesOptions struct {
	// AllowNegative lets a sale drive stock below zero. The oversold
	// products are reported in the result instead of failing the sale.
	AllowNegative bool
	// Location defines calendar days for the date filter.
	Location *time.Location
}

type salesService struct {
	tx          *database.Transactor
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	publisher   events.Publisher
	log         *slog.Logger
	opts        SalesOptions
	now         Clock
}

func NewSalesService(
	tx *database.Transactor,
	pRepo repository.ProductRepository,
	sRepo repository.SaleRepository,
	pub events.Publisher,
	log *slog.Logger,
	opts SalesOptions,
) SalesService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &salesService{
		tx:          tx,
		productRepo: pRepo,
		saleRepo:    sRepo,
		publisher:   pub,
		log:         log,
		opts:        opts,
		now:         time.Now,
	}
}

// RecordSale writes the header, its lines and every stock decrement in one
// unit of work. Low-stock warnings are read after commit and cannot undo
// the sale.
func (s *salesService) RecordSale(ctx context.Context, actor Actor, in SaleInput) (*SaleResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return nil, fmt.Errorf("%w: cashier is required", ErrValidation)
	}
	method := strings.ToLower(strings.TrimSpace(in.PaymentMethod))
	if method == "" {
		method = defaultPaymentMethod
	}

	sale := &model.Sale{
		CashierID:     actor.ID,
		SoldAt:        utcNow(s.now),
		PaymentMethod: method,
		Total:         decimal.Zero,
	}
	sale.CreatedBy = actor.ID
	sale.UpdatedBy = actor.ID

	demand := make(map[uuid.UUID]int, len(in.Lines))
	for i, l := range in.Lines {
		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		line := model.SaleLine{
			LineNo:    i + 1,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  subtotal,
		}
		line.CreatedBy = actor.ID
		line.UpdatedBy = actor.ID
		sale.Lines = append(sale.Lines, line)
		sale.Total = sale.Total.Add(subtotal)
		demand[l.ProductID] += l.Quantity
	}
	if err := checkQuantities(demand); err != nil {
		return nil, err
	}
	if in.Total != nil && !in.Total.Equal(sale.Total) {
		return nil, fmt.Errorf("%w: total %s does not match computed total %s", ErrValidation, in.Total.String(), sale.Total.String())
	}

	var oversold []model.LowStockItem
	err := s.tx.Do(ctx, func(tx *gorm.DB) error {
		oversold = nil
		ids := sortedIDs(demand)
		products, err := s.productRepo.LockByIDs(tx, ids)
		if err != nil {
			return err
		}
		if missing := missingIDs(ids, products); len(missing) > 0 {
			return fmt.Errorf("%w: product %s", ErrNotFound, missing[0])
		}

		for _, p := range products {
			after := p.Stock - demand[p.ID]
			if after < 0 {
				if !s.opts.AllowNegative {
					return fmt.Errorf("%w: '%s' has %d on hand, %d requested", ErrInsufficientStock, p.Name, p.Stock, demand[p.ID])
				}
				oversold = append(oversold, model.LowStockItem{ID: p.ID, Name: p.Name, Stock: after})
			}
			if err := s.productRepo.AdjustStock(tx, p.ID, -demand[p.ID], actor.ID); err != nil {
				return err
			}
		}

		return s.saleRepo.Create(tx, sale)
	})
	if err != nil {
		return nil, storageErr(err, "sale")
	}

	result := &SaleResult{
		TransactionID: sale.ID,
		Total:         sale.Total,
		SoldAt:        sale.SoldAt,
		Oversold:      oversold,
	}

	warnings, err := s.productRepo.FindLowStock(ctx, model.ReorderThreshold)
	if err != nil {
		s.log.Error("low stock check failed after sale", "sale_id", sale.ID, "err", err)
		result.WarningsUnavailable = true
		warnings = nil
	}
	if warnings == nil {
		warnings = []model.LowStockItem{}
	}
	result.LowStockWarnings = warnings

	s.log.Info("sale recorded",
		"sale_id", sale.ID,
		"cashier_id", actor.ID,
		"lines", len(sale.Lines),
		"total", sale.Total.String(),
		"low_stock", len(warnings),
	)
	ev := events.Event{
		Type:          events.SaleRecorded,
		Message:       fmt.Sprintf("%s recorded a sale of %s", actor.Name, sale.Total.StringFixed(2)),
		Actor:         actor.event(),
		EntityID:      sale.ID.String(),
		LowStockCount: len(warnings),
		Data:          result,
		OccurredAt:    sale.SoldAt,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("event publish failed", "type", ev.Type, "err", err)
	}
	return result, nil
}

func (s *salesService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "sale")
	}
	return sale, nil
}

func (s *salesService) ListSales(ctx context.Context, filter model.SaleFilter) ([]model.Sale, error) {
	q := repository.SaleQuery{CashierID: filter.CashierID}
	if filter.Date != nil {
		from, to := dayRange(*filter.Date, s.opts.Location)
		q.From, q.To = &from, &to
	}
	sales, err := s.saleRepo.FindAll(ctx, q)
	return sales, storageErr(err, "sales")
}

// dayRange returns the UTC bounds [from, to) of the calendar day containing
// t, as observed in loc.
func dayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// checkQuantities rejects a transaction whose lines add up to more than
// MaxLineQuantity for any one product.
func checkQuantities(qty map[uuid.UUID]int) error {
	for id, n := range qty {
		if n > model.MaxLineQuantity {
			return fmt.Errorf("%w: product %s quantity %d exceeds %d", ErrValidation, id, n, model.MaxLineQuantity)
		}
	}
	return nil
}

// sortedIDs returns the keys in ascending byte order, which is also the
// order Postgres sorts uuid columns in.
func sortedIDs(m map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

func missingIDs(want []uuid.UUID, got []model.Product) []uuid.UUID {
	found := make(map[uuid.UUID]bool, len(got))
	for _, p := range got {
		found[p.ID] = true
	}
	var missing []uuid.UUID
	for _, id := range want {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
