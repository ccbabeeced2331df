package service

import (
	"context"
	"time"

	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"

	"github.com/shopspring/decimal"
)

type DashboardSummary struct {
	repository.InventoryStats
	TodaySalesTotal decimal.Decimal `json:"today_sales_total"`
	TodaySalesCount int64           `json:"today_sales_count"`
}

// DailyMovement is one calendar day of ledger activity.
type DailyMovement struct {
	Date       string          `json:"date"`
	SalesTotal decimal.Decimal `json:"sales_total"`
	UnitsOut   int             `json:"units_out"`
	UnitsIn    int             `json:"units_in"`
}

type DashboardService interface {
	Summary(ctx context.Context) (*DashboardSummary, error)
	Movement(ctx context.Context, days int) ([]DailyMovement, error)
	TopProducts(ctx context.Context, limit int) ([]repository.TopProduct, error)
	Expiring(ctx context.Context, days int) ([]model.Product, error)
}

type dashboardService struct {
	reportRepo repository.ReportRepository
	loc        *time.Location
	now        Clock
}

func NewDashboardService(reportRepo repository.ReportRepository, loc *time.Location) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{reportRepo: reportRepo, loc: loc, now: time.Now}
}

func (s *dashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	stats, err := s.reportRepo.InventoryStats(ctx)
	if err != nil {
		return nil, storageErr(err, "inventory stats")
	}
	from, to := dayRange(utcNow(s.now), s.loc)
	total, count, err := s.reportRepo.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, storageErr(err, "sales summary")
	}
	return &DashboardSummary{
		InventoryStats:  *stats,
		TodaySalesTotal: total,
		TodaySalesCount: count,
	}, nil
}

// Movement returns one entry per day for the last days days, today
// included, oldest first. Days without activity are present with zeros.
func (s *dashboardService) Movement(ctx context.Context, days int) ([]DailyMovement, error) {
	days = clamp(days, 7, 1, 90)
	today, _ := dayRange(utcNow(s.now), s.loc)
	from := today.In(s.loc).AddDate(0, 0, -(days - 1)).UTC()

	out := make([]DailyMovement, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := from.In(s.loc).AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DailyMovement{Date: key, SalesTotal: decimal.Zero}
		index[key] = i
	}

	sales, err := s.reportRepo.SaleMovements(ctx, from)
	if err != nil {
		return nil, storageErr(err, "sale movements")
	}
	for _, m := range sales {
		if i, ok := index[m.At.In(s.loc).Format("2006-01-02")]; ok {
			out[i].SalesTotal = out[i].SalesTotal.Add(m.Value)
			out[i].UnitsOut += m.Units
		}
	}

	receipts, err := s.reportRepo.ReceiptMovements(ctx, from)
	if err != nil {
		return nil, storageErr(err, "receipt movements")
	}
	for _, m := range receipts {
		if i, ok := index[m.At.In(s.loc).Format("2006-01-02")]; ok {
			out[i].UnitsIn += m.Units
		}
	}
	return out, nil
}

func (s *dashboardService) TopProducts(ctx context.Context, limit int) ([]repository.TopProduct, error) {
	top, err := s.reportRepo.TopProducts(ctx, clamp(limit, 5, 1, 50))
	return top, storageErr(err, "top products")
}

func (s *dashboardService) Expiring(ctx context.Context, days int) ([]model.Product, error) {
	days = clamp(days, 30, 1, 365)
	products, err := s.reportRepo.ExpiringBefore(ctx, utcNow(s.now).AddDate(0, 0, days))
	return products, storageErr(err, "expiring products")
}

// clamp substitutes def for non-positive n and bounds the result.
func clamp(n, def, lo, hi int) int {
	if n <= 0 {
		n = def
	}
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
