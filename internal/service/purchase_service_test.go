package service

import (
	"context"
	"math"
	"testing"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPurchaseReceivedThenSale(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	sup := f.supplier(t, "PT Satwa Sehat")
	x := f.product(t, "Vitamin Kucing", 7, "12000", "20000")

	res, err := f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{
		SupplierID: sup.ID,
		Lines:      []PurchaseLineInput{{ProductID: x.ID, Quantity: 20, UnitCost: dec("12000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PurchaseReceived, res.Status)
	assert.True(t, dec("240000").Equal(res.Total))
	assert.Equal(t, 27, f.stock(t, x.ID))

	_, err = f.sales.RecordSale(ctx, cashier, SaleInput{
		Lines: []SaleLineInput{{ProductID: x.ID, Quantity: 5, UnitPrice: dec("20000")}},
	})
	require.NoError(t, err)
	assert.Equal(t, 7+20-5, f.stock(t, x.ID))

	purchase, err := f.purchases.GetPurchase(ctx, res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, model.SourceManual, purchase.Source)
	assert.NotNil(t, purchase.ReceivedAt)
	require.NotNil(t, purchase.Supplier)
	assert.Equal(t, "PT Satwa Sehat", purchase.Supplier.Name)
	require.Len(t, purchase.Lines, 1)
	assert.Len(t, f.events.ofType(events.PurchaseRecorded), 1)
}

func TestRecordPurchaseRequestedLeavesStock(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	sup := f.supplier(t, "CV Medivet")
	p := f.product(t, "Infus Hewan", 3, "25000", "40000")

	res, err := f.purchases.RecordPurchase(context.Background(), cashier, PurchaseInput{
		SupplierID: sup.ID,
		Status:     model.PurchaseRequested,
		Lines:      []PurchaseLineInput{{ProductID: p.ID, Quantity: 10, UnitCost: dec("25000")}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseRequested, res.Status)
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestReceivePurchaseAppliesOnce(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	sup := f.supplier(t, "CV Medivet")
	a := f.product(t, "Infus Hewan", 3, "25000", "40000")
	b := f.product(t, "Spuit 3ml", 0, "1500", "3000")

	res, err := f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{
		SupplierID: sup.ID,
		Status:     model.PurchaseRequested,
		Lines: []PurchaseLineInput{
			{ProductID: a.ID, Quantity: 10, UnitCost: dec("25000")},
			{ProductID: b.ID, Quantity: 100, UnitCost: dec("1500")},
			{ProductID: a.ID, Quantity: 2, UnitCost: dec("25000")},
		},
	})
	require.NoError(t, err)

	first, err := f.purchases.ReceivePurchase(ctx, cashier, res.TransactionID)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.Equal(t, model.PurchaseReceived, first.Status)
	assert.Equal(t, 15, f.stock(t, a.ID))
	assert.Equal(t, 100, f.stock(t, b.ID))

	second, err := f.purchases.ReceivePurchase(ctx, cashier, res.TransactionID)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.Equal(t, model.PurchaseReceived, second.Status)
	assert.Equal(t, 15, f.stock(t, a.ID), "second receive must not re-apply")
	assert.Len(t, f.events.ofType(events.PurchaseReceived), 1)
}

func TestReceivePurchaseNotFound(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	_, err := f.purchases.ReceivePurchase(context.Background(), cashier, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPurchaseUnknownReferences(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	sup := f.supplier(t, "PT Satwa Sehat")
	p := f.product(t, "Plester", 5, "2000", "3500")

	_, err := f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{
		SupplierID: uuid.New(),
		Lines:      []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec("2000")}},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{
		SupplierID: sup.ID,
		Lines: []PurchaseLineInput{
			{ProductID: p.ID, Quantity: 5, UnitCost: dec("2000")},
			{ProductID: uuid.New(), Quantity: 1, UnitCost: dec("2000")},
		},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 5, f.stock(t, p.ID))
	assert.Zero(t, f.count(t, &model.Purchase{}))
	assert.Zero(t, f.count(t, &model.PurchaseLine{}))
}

func TestRecordPurchaseValidation(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	sup := f.supplier(t, "PT Satwa Sehat")
	p := f.product(t, "Plester", 5, "2000", "3500")

	cases := map[string]PurchaseInput{
		"no supplier":   {Lines: []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec("1")}}},
		"no lines":      {SupplierID: sup.ID},
		"zero quantity": {SupplierID: sup.ID, Lines: []PurchaseLineInput{{ProductID: p.ID, UnitCost: dec("1")}}},
		"negative cost": {SupplierID: sup.ID, Lines: []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec("-5")}}},
		"bad status":    {SupplierID: sup.ID, Status: "shipped", Lines: []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec("1")}}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.purchases.RecordPurchase(context.Background(), cashier, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, f.count(t, &model.Purchase{}))
}

func TestRecordPurchaseRejectsOversizedAndSubCentLines(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	sup := f.supplier(t, "PT Satwa Sehat")
	p := f.product(t, "Plester", 5, "2000", "3500")

	cases := map[string][]PurchaseLineInput{
		"wrapping lines": {
			{ProductID: p.ID, Quantity: math.MaxInt, UnitCost: dec("0")},
			{ProductID: p.ID, Quantity: math.MaxInt, UnitCost: dec("0")},
		},
		"sum over limit": {
			{ProductID: p.ID, Quantity: 700_000, UnitCost: dec("1")},
			{ProductID: p.ID, Quantity: 700_000, UnitCost: dec("1")},
		},
		"sub cent cost": {
			{ProductID: p.ID, Quantity: 3, UnitCost: dec("1.005")},
		},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.purchases.RecordPurchase(context.Background(), admin, PurchaseInput{SupplierID: sup.ID, Lines: lines})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Equal(t, 5, f.stock(t, p.ID))
	assert.Zero(t, f.count(t, &model.Purchase{}))
}

func TestListPurchasesFilters(t *testing.T) {
	f := newFixture(t, SalesOptions{})
	ctx := context.Background()
	a := f.supplier(t, "Supplier A")
	b := f.supplier(t, "Supplier B")
	p := f.product(t, "Kapas", 5, "1000", "2000")

	line := []PurchaseLineInput{{ProductID: p.ID, Quantity: 1, UnitCost: dec("1000")}}
	_, err := f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{SupplierID: a.ID, Lines: line})
	require.NoError(t, err)
	_, err = f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{SupplierID: a.ID, Status: model.PurchaseRequested, Lines: line})
	require.NoError(t, err)
	_, err = f.purchases.RecordPurchase(ctx, cashier, PurchaseInput{SupplierID: b.ID, Lines: line})
	require.NoError(t, err)

	all, err := f.purchases.ListPurchases(ctx, model.PurchaseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byA, err := f.purchases.ListPurchases(ctx, model.PurchaseFilter{SupplierID: &a.ID})
	require.NoError(t, err)
	assert.Len(t, byA, 2)

	open, err := f.purchases.ListPurchases(ctx, model.PurchaseFilter{Status: model.PurchaseRequested})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a.ID, open[0].SupplierID)

	_, err = f.purchases.ListPurchases(ctx, model.PurchaseFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrValidation)
}
