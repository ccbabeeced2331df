package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/internal/service"
	"go-vetpos/pkg/database"
	"go-vetpos/pkg/jwt"
	"go-vetpos/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app     *fiber.App
	db      *gorm.DB
	admin   string
	cashier string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger:         logger.Gorm(logger.Discard(), "silent"),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	log := logger.Discard()
	tx := database.NewTransactor(db)
	pub := events.Discard()
	productRepo := repository.NewProductRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	userRepo := repository.NewUserRepo(db)
	purchases := service.NewPurchaseService(tx, productRepo, supplierRepo, purchaseRepo, pub, log)

	app := fiber.New()
	Register(app, Services{
		Auth:      service.NewAuthService(userRepo, jwt.NewManager("handler-test", time.Hour)),
		Catalog:   service.NewCatalogService(repository.NewCategoryRepo(db), supplierRepo, productRepo, pub, log),
		Sales:     service.NewSalesService(tx, productRepo, repository.NewSaleRepo(db), pub, log, service.SalesOptions{}),
		Purchases: purchases,
		Replenish: service.NewReplenishService(tx, productRepo, supplierRepo, purchaseRepo, purchases, pub, log),
		Dashboard: service.NewDashboardService(repository.NewReportRepo(db), time.UTC),
		Location:  time.UTC,
		Log:       log,
	})

	s := &testServer{app: app, db: db}
	for _, u := range []struct {
		email string
		role  model.Role
	}{{"admin@vet.local", model.RoleAdmin}, {"kasir@vet.local", model.RoleCashier}} {
		user := &model.User{Email: u.email, Name: string(u.role), Role: u.role, IsActive: true}
		require.NoError(t, user.SetPassword("rahasia123"))
		require.NoError(t, userRepo.Create(context.Background(), user))
	}
	s.admin = s.login(t, "admin@vet.local")
	s.cashier = s.login(t, "kasir@vet.local")
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func (s *testServer) createProduct(t *testing.T, name string, stock int) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/v1/products", s.admin, map[string]any{
		"name": name, "stock": stock, "purchase_cost": "10000", "sale_price": 15000,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["data"].(map[string]any)["id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/products", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "admin@vet.local", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCashierCannotManageCatalog(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/products", s.cashier, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/replenish", s.cashier, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/products", s.cashier, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRecordSaleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, "Vitamin Kucing", 12)

	status, body := s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{
		"payment_method": "cash",
		"lines":          []map[string]any{{"product_id": id, "quantity": 3, "unit_price": "15000"}},
	})
	require.Equal(t, http.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["transaction_id"])
	assert.Equal(t, "45000", data["total"])
	warnings := data["low_stock_warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Equal(t, float64(9), warnings[0].(map[string]any)["stock"])

	status, body = s.do(t, http.MethodGet, "/api/v1/sales/"+data["transaction_id"].(string), s.cashier, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["lines"], 1)
}

func TestRecordSaleErrorMapping(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, "Salep", 2)

	status, _ := s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{"lines": []any{}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{
		"lines": []map[string]any{{"product_id": id, "quantity": 0, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{
		"lines": []map[string]any{{"product_id": id, "quantity": 5, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body["error"], "insufficient stock")

	status, _ = s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{
		"lines": []map[string]any{{"product_id": "6f1c8a52-2c1e-4a57-9a43-8f6b3e0d2a10", "quantity": 1, "unit_price": 1}},
	})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/sales/not-a-uuid", s.cashier, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestReplenishAndReceiveOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, "Obat Kutu", 4)

	status, body := s.do(t, http.MethodPost, "/api/v1/replenish", s.admin, nil)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["created"])
	purchaseID := body["purchase_id"].(string)

	status, body = s.do(t, http.MethodPost, "/api/v1/replenish", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["created"])

	status, body = s.do(t, http.MethodPost, "/api/v1/purchases/"+purchaseID+"/receive", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["applied"])

	status, body = s.do(t, http.MethodPost, "/api/v1/purchases/"+purchaseID+"/receive", s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["applied"])

	status, body = s.do(t, http.MethodGet, "/api/v1/products/"+id, s.admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(model.RestockTarget), body["stock"])
}

func TestDeleteReferencedProductConflicts(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, "Kalung", 10)

	status, _ := s.do(t, http.MethodPost, "/api/v1/sales", s.cashier, map[string]any{
		"lines": []map[string]any{{"product_id": id, "quantity": 1, "unit_price": 15000}},
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/products/"+id, s.admin, nil)
	assert.Equal(t, http.StatusConflict, status)
}
