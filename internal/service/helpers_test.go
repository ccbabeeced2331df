package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/pkg/database"
	"go-vetpos/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var cashier = Actor{ID: "cashier-1", Name: "Sari", Role: model.RoleCashier}

// recorder captures published events.
type recorder struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

func (r *recorder) ofType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.got {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	events    *recorder
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	catalog   CatalogService
	sales     SalesService
	purchases PurchaseService
	replenish ReplenishService
}

// newTestDB opens a fresh SQLite file with the production schema. A single
// connection keeps the transaction semantics strict: anything inside a unit
// of work that escapes the tx handle would block.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vetpos.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Gorm(logger.Discard(), "silent"),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.Migrate(db))
	return db
}

func newFixture(t *testing.T, opts SalesOptions) *fixture {
	t.Helper()
	db := newTestDB(t)
	return newFixtureWith(t, db, repository.NewProductRepo(db), opts)
}

func newFixtureWith(t *testing.T, db *gorm.DB, products repository.ProductRepository, opts SalesOptions) *fixture {
	t.Helper()
	rec := &recorder{}
	log := logger.Discard()
	tx := database.NewTransactor(db)
	suppliers := repository.NewSupplierRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)

	purchases := NewPurchaseService(tx, products, suppliers, purchaseRepo, rec, log)
	return &fixture{
		db:        db,
		events:    rec,
		products:  products,
		suppliers: suppliers,
		catalog:   NewCatalogService(repository.NewCategoryRepo(db), suppliers, products, rec, log),
		sales:     NewSalesService(tx, products, repository.NewSaleRepo(db), rec, log, opts),
		purchases: purchases,
		replenish: NewReplenishService(tx, products, suppliers, purchaseRepo, purchases, rec, log),
	}
}

func (f *fixture) product(t *testing.T, name string, stock int, cost, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:         name,
		Stock:        stock,
		PurchaseCost: decimal.RequireFromString(cost),
		SalePrice:    decimal.RequireFromString(price),
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) supplier(t *testing.T, name string) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: name, Contact: "021-555", PaymentTerms: "NET30"}
	require.NoError(t, f.db.Create(s).Error)
	return s
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return p.Stock
}

func (f *fixture) count(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
