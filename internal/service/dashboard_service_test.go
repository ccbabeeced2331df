package service

import (
	"context"
	"testing"
	"time"

	"go-vetpos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardProjections(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC)
	f.sales.(*salesService).now = fixedClock(now)
	f.purchases.(*purchaseService).now = fixedClock(now.AddDate(0, 0, -1))

	dash := NewDashboardService(repository.NewReportRepo(f.db), time.UTC).(*dashboardService)
	dash.now = fixedClock(now)

	kucing := f.product(t, "Makanan Kucing", 20, "10000", "15000")
	anjing := f.product(t, "Makanan Anjing", 5, "20000", "30000")
	sup := f.supplier(t, "PT Satwa")

	_, err := f.purchases.RecordPurchase(ctx, admin, PurchaseInput{
		SupplierID: sup.ID,
		Lines:      []PurchaseLineInput{{ProductID: anjing.ID, Quantity: 10, UnitCost: dec("20000")}},
	})
	require.NoError(t, err)

	_, err = f.sales.RecordSale(ctx, cashier, SaleInput{
		Lines: []SaleLineInput{
			{ProductID: kucing.ID, Quantity: 4, UnitPrice: dec("15000")},
			{ProductID: anjing.ID, Quantity: 1, UnitPrice: dec("30000")},
		},
	})
	require.NoError(t, err)

	summary, err := dash.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalProducts)
	assert.Equal(t, int64(0), summary.LowStockCount)
	// 16 * 10000 + 14 * 20000
	assert.True(t, dec("440000").Equal(summary.Valuation), "valuation %s", summary.Valuation)
	assert.True(t, dec("90000").Equal(summary.TodaySalesTotal))
	assert.Equal(t, int64(1), summary.TodaySalesCount)

	movement, err := dash.Movement(ctx, 3)
	require.NoError(t, err)
	require.Len(t, movement, 3)
	assert.Equal(t, "2024-06-08", movement[0].Date)
	assert.Equal(t, "2024-06-09", movement[1].Date)
	assert.Equal(t, 10, movement[1].UnitsIn)
	assert.Equal(t, "2024-06-10", movement[2].Date)
	assert.Equal(t, 5, movement[2].UnitsOut)
	assert.True(t, dec("90000").Equal(movement[2].SalesTotal))
	assert.True(t, movement[0].SalesTotal.IsZero())

	top, err := dash.TopProducts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, kucing.ID, top[0].ProductID)
	assert.Equal(t, 4, top[0].Units)
	assert.True(t, dec("60000").Equal(top[0].Revenue))
}

func TestDashboardExpiring(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC)
	dash := NewDashboardService(repository.NewReportRepo(f.db), time.UTC).(*dashboardService)
	dash.now = fixedClock(now)

	soon := now.AddDate(0, 0, 10)
	later := now.AddDate(0, 0, 90)
	_, err := f.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Vaksin", ExpiryDate: &soon})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Salep", ExpiryDate: &later})
	require.NoError(t, err)
	_, err = f.catalog.CreateProduct(ctx, admin, ProductInput{Name: "Kandang"})
	require.NoError(t, err)

	expiring, err := dash.Expiring(ctx, 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Vaksin", expiring[0].Name)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 7, clamp(0, 7, 1, 90))
	assert.Equal(t, 90, clamp(400, 7, 1, 90))
	assert.Equal(t, 3, clamp(3, 7, 1, 90))
}
