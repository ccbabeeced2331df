package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type SupplierInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	Contact      string `json:"contact" validate:"max=100"`
	Address      string `json:"address"`
	PaymentTerms string `json:"payment_terms" validate:"max=50"`
}

// ProductInput is shared by create and update. Stock is an opening balance
// and is ignored on update; afterwards only sales and purchases move it.
type ProductInput struct {
	Name         string          `json:"name" validate:"required,max=255"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	Stock        int             `json:"stock" validate:"gte=0"`
	PurchaseCost decimal.Decimal `json:"purchase_cost" validate:"gte=0,money"`
	SalePrice    decimal.Decimal `json:"sale_price" validate:"gte=0,money"`
	BatchNumber  *string         `json:"batch_number" validate:"omitempty,max=64"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	Description  string          `json:"description"`
}

type CatalogService interface {
	CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateSupplier(ctx context.Context, actor Actor, in SupplierInput) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, actor Actor, id uuid.UUID, in SupplierInput) (*model.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, in ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error
}

type catalogService struct {
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	publisher    events.Publisher
	log          *slog.Logger
	now          Clock
}

func NewCatalogService(
	cRepo repository.CategoryRepository,
	sRepo repository.SupplierRepository,
	pRepo repository.ProductRepository,
	pub events.Publisher,
	log *slog.Logger,
) CatalogService {
	return &catalogService{
		categoryRepo: cRepo,
		supplierRepo: sRepo,
		productRepo:  pRepo,
		publisher:    pub,
		log:          log,
		now:          time.Now,
	}
}

func (s *catalogService) CreateCategory(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	category := &model.Category{Name: in.Name}
	category.CreatedBy = actor.ID
	category.UpdatedBy = actor.ID
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, storageErr(err, "category "+in.Name)
	}
	return category, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	return categories, storageErr(err, "categories")
}

// DeleteCategory refuses while products still point at the category.
func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return storageErr(err, "category")
	}
	n, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return storageErr(err, "category")
	}
	if n > 0 {
		return fmt.Errorf("%w: category is used by %d product(s)", ErrConflict, n)
	}
	return storageErr(s.categoryRepo.Delete(ctx, id), "category")
}

func (s *catalogService) CreateSupplier(ctx context.Context, actor Actor, in SupplierInput) (*model.Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{
		Name:         in.Name,
		Contact:      in.Contact,
		Address:      in.Address,
		PaymentTerms: in.PaymentTerms,
	}
	supplier.CreatedBy = actor.ID
	supplier.UpdatedBy = actor.ID
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, storageErr(err, "supplier "+in.Name)
	}
	return supplier, nil
}

func (s *catalogService) UpdateSupplier(ctx context.Context, actor Actor, id uuid.UUID, in SupplierInput) (*model.Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	supplier := &model.Supplier{
		Name:         in.Name,
		Contact:      in.Contact,
		Address:      in.Address,
		PaymentTerms: in.PaymentTerms,
	}
	supplier.ID = id
	supplier.UpdatedBy = actor.ID
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, storageErr(err, "supplier")
	}
	return s.GetSupplier(ctx, id)
}

func (s *catalogService) GetSupplier(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "supplier")
	}
	return supplier, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx)
	return suppliers, storageErr(err, "suppliers")
}

// DeleteSupplier refuses while purchases reference the supplier.
func (s *catalogService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	if _, err := s.supplierRepo.FindByID(ctx, id); err != nil {
		return storageErr(err, "supplier")
	}
	used, err := s.supplierRepo.HasPurchases(ctx, id)
	if err != nil {
		return storageErr(err, "supplier")
	}
	if used {
		return fmt.Errorf("%w: supplier has purchase history", ErrConflict)
	}
	return storageErr(s.supplierRepo.Delete(ctx, id), "supplier")
}

func (s *catalogService) CreateProduct(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := productFromInput(in)
	product.Stock = in.Stock
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, storageErr(err, "product")
	}

	s.publish(ctx, events.Event{
		Type:     events.ProductCreated,
		Message:  fmt.Sprintf("%s created product '%s'", actor.Name, product.Name),
		Actor:    actor.event(),
		EntityID: product.ID.String(),
		Data:     product,
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, in ProductInput) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product := productFromInput(in)
	product.ID = id
	product.UpdatedBy = actor.ID
	if err := s.productRepo.UpdateDetails(ctx, product); err != nil {
		return nil, storageErr(err, "product")
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	s.publish(ctx, events.Event{
		Type:     events.ProductUpdated,
		Message:  fmt.Sprintf("%s updated product '%s'", actor.Name, updated.Name),
		Actor:    actor.event(),
		EntityID: updated.ID.String(),
		Data:     updated,
	})
	return updated, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "product")
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx, filter)
	return products, storageErr(err, "products")
}

// DeleteProduct refuses once the product appears in any sale or purchase:
// the ledger must stay resolvable.
func (s *catalogService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return storageErr(err, "product")
	}
	used, err := s.productRepo.IsReferenced(ctx, id)
	if err != nil {
		return storageErr(err, "product")
	}
	if used {
		return fmt.Errorf("%w: product has transaction history", ErrConflict)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return storageErr(err, "product")
	}

	s.publish(ctx, events.Event{
		Type:     events.ProductDeleted,
		Message:  fmt.Sprintf("%s deleted product '%s'", actor.Name, product.Name),
		Actor:    actor.event(),
		EntityID: id.String(),
	})
	return nil
}

func (s *catalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *id); err != nil {
		return storageErr(err, "category")
	}
	return nil
}

func (s *catalogService) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = utcNow(s.now)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", "type", e.Type, "err", err)
	}
}

func productFromInput(in ProductInput) *model.Product {
	if in.ExpiryDate != nil {
		expiry := in.ExpiryDate.UTC()
		in.ExpiryDate = &expiry
	}
	return &model.Product{
		Name:         in.Name,
		CategoryID:   in.CategoryID,
		PurchaseCost: in.PurchaseCost,
		SalePrice:    in.SalePrice,
		BatchNumber:  in.BatchNumber,
		ExpiryDate:   in.ExpiryDate,
		Description:  in.Description,
	}
}
