package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-vetpos/internal/events"
	"go-vetpos/internal/model"
	"go-vetpos/internal/repository"
	"go-vetpos/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReplenishLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Pending   int             `json:"pending"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type ReplenishResult struct {
	Created    bool            `json:"created"`
	PurchaseID *uuid.UUID      `json:"purchase_id,omitempty"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
	Lines      []ReplenishLine `json:"lines"`
	Reason     string          `json:"reason,omitempty"`
}

type ReplenishService interface {
	// RunAutoReplenish orders stock for every product under the reorder
	// threshold. With supplierID nil the order goes to the shared
	// "Auto Supplier" record.
	RunAutoReplenish(ctx context.Context, actor Actor, supplierID *uuid.UUID) (*ReplenishResult, error)
}

type replenishService struct {
	tx           *database.Transactor
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	purchaseRepo repository.PurchaseRepository
	purchases    PurchaseService
	publisher    events.Publisher
	log          *slog.Logger
	now          Clock
}

func NewReplenishService(
	tx *database.Transactor,
	pRepo repository.ProductRepository,
	sRepo repository.SupplierRepository,
	puRepo repository.PurchaseRepository,
	purchases PurchaseService,
	pub events.Publisher,
	log *slog.Logger,
) ReplenishService {
	return &replenishService{
		tx:           tx,
		productRepo:  pRepo,
		supplierRepo: sRepo,
		purchaseRepo: puRepo,
		purchases:    purchases,
		publisher:    pub,
		log:          log,
		now:          time.Now,
	}
}

func (s *replenishService) RunAutoReplenish(ctx context.Context, actor Actor, supplierID *uuid.UUID) (*ReplenishResult, error) {
	if supplierID != nil && *supplierID == uuid.Nil {
		return nil, fmt.Errorf("%w: supplier_id must not be the nil uuid", ErrValidation)
	}

	// Cheap scan first: most runs find nothing and never open a transaction.
	low, err := s.productRepo.FindLowStock(ctx, model.ReorderThreshold)
	if err != nil {
		return nil, storageErr(err, "low stock scan")
	}
	if len(low) == 0 {
		return &ReplenishResult{Lines: []ReplenishLine{}, Reason: "no product under threshold"}, nil
	}

	result := &ReplenishResult{Lines: []ReplenishLine{}}
	err = s.tx.Do(ctx, func(tx *gorm.DB) error {
		result.Lines = []ReplenishLine{}
		// One run at a time across all suppliers, so the stock and pending
		// figures below cannot be double-counted.
		if err := s.purchaseRepo.LockReplenishment(tx); err != nil {
			return err
		}
		supplier, err := s.resolveSupplier(tx, actor, supplierID)
		if err != nil {
			return err
		}
		sid := supplier.ID
		result.SupplierID = &sid

		products, err := s.productRepo.FindBelowThreshold(tx, model.ReorderThreshold)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(products))
		for _, p := range products {
			ids = append(ids, p.ID)
		}
		pending, err := s.purchaseRepo.PendingQuantities(tx, ids)
		if err != nil {
			return err
		}

		lines, draft := planReplenishment(products, pending)
		if len(draft) == 0 {
			result.Reason = "shortages already on order"
			return nil
		}

		purchase, err := s.purchases.CreateWithin(tx, actor, PurchaseInput{
			SupplierID: sid,
			Status:     model.PurchaseRequested,
			Lines:      draft,
		}, model.SourceAuto)
		if err != nil {
			return err
		}

		pid := purchase.ID
		result.Created = true
		result.PurchaseID = &pid
		result.Total = purchase.Total
		result.Lines = lines
		return nil
	})
	if err != nil {
		return nil, storageErr(err, "replenishment")
	}

	if result.Created {
		s.log.Info("replenishment order created",
			"purchase_id", *result.PurchaseID,
			"supplier_id", *result.SupplierID,
			"lines", len(result.Lines),
			"total", result.Total.String(),
		)
		ev := events.Event{
			Type:       events.ReplenishmentCreated,
			Message:    fmt.Sprintf("%s requested restock of %d product(s)", actor.Name, len(result.Lines)),
			Actor:      actor.event(),
			EntityID:   result.PurchaseID.String(),
			Data:       result,
			OccurredAt: utcNow(s.now),
		}
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.log.Warn("event publish failed", "type", ev.Type, "err", err)
		}
	}
	return result, nil
}

func (s *replenishService) resolveSupplier(tx *gorm.DB, actor Actor, supplierID *uuid.UUID) (*model.Supplier, error) {
	if supplierID != nil {
		supplier, err := s.supplierRepo.LockByID(tx, *supplierID)
		if err != nil {
			return nil, storageErr(err, "supplier")
		}
		return supplier, nil
	}

	sentinel := &model.Supplier{
		Name:         model.SentinelSupplierName,
		Contact:      "-",
		Address:      "-",
		PaymentTerms: "auto",
	}
	sentinel.CreatedBy = actor.ID
	sentinel.UpdatedBy = actor.ID
	supplier, err := s.supplierRepo.EnsureByName(tx, sentinel)
	if err != nil {
		return nil, storageErr(err, "sentinel supplier")
	}
	return supplier, nil
}

// planReplenishment tops each product up to the restock target, counting
// what is already on order. Products that need nothing get no line.
func planReplenishment(products []model.Product, pending map[uuid.UUID]int) ([]ReplenishLine, []PurchaseLineInput) {
	var lines []ReplenishLine
	var draft []PurchaseLineInput
	for _, p := range products {
		need := model.RestockTarget - p.Stock - pending[p.ID]
		if need <= 0 {
			continue
		}
		lines = append(lines, ReplenishLine{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			Pending:   pending[p.ID],
			Quantity:  need,
			UnitCost:  p.PurchaseCost,
			Subtotal:  p.PurchaseCost.Mul(decimal.NewFromInt(int64(need))),
		})
		draft = append(draft, PurchaseLineInput{
			ProductID: p.ID,
			Quantity:  need,
			UnitCost:  p.PurchaseCost,
		})
	}
	return lines, draft
}
