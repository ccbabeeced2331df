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

type PurchaseLineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"uuid_required"`
	Quantity  int             `json:"quantity" validate:"gt=0,lte=1000000"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"gte=0,money"`
}

// PurchaseInput records a purchase. Status defaults to received, which
// moves stock immediately; requested records intent only.
type PurchaseInput struct {
	SupplierID   uuid.UUID            `json:"supplier_id" validate:"uuid_required"`
	PurchaseDate *time.Time           `json:"purchase_date"`
	Status       model.PurchaseStatus `json:"status" validate:"omitempty,oneof=requested received"`
	Lines        []PurchaseLineInput  `json:"lines" validate:"required,min=1,dive"`
	Total        *decimal.Decimal     `json:"total,omitempty"`
}

type PurchaseResult struct {
	TransactionID uuid.UUID            `json:"transaction_id"`
	Total         decimal.Decimal      `json:"total"`
	Status        model.PurchaseStatus `json:"status"`
}

type ReceiveResult struct {
	PurchaseID uuid.UUID            `json:"purchase_id"`
	Status     model.PurchaseStatus `json:"status"`
	// Applied is false when the purchase had already been received and
	// this call changed nothing.
	Applied bool `json:"applied"`
}

type PurchaseService interface {
	RecordPurchase(ctx context.Context, actor Actor, in PurchaseInput) (*PurchaseResult, error)
	ReceivePurchase(ctx context.Context, actor Actor, id uuid.UUID) (*ReceiveResult, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	ListPurchases(ctx context.Context, filter model.PurchaseFilter) ([]model.Purchase, error)

	// CreateWithin writes a purchase on the caller's transaction. It is the
	// entry point for other units of work that need to place an order.
	CreateWithin(tx *gorm.DB, actor Actor, in PurchaseInput, source model.PurchaseSource) (*model.Purchase, error)
}

type purchaseService struct {
	tx           *database.Transactor
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	purchaseRepo repository.PurchaseRepository
	publisher    events.Publisher
	log          *slog.Logger
	now          Clock
}

func NewPurchaseService(
	tx *database.Transactor,
	pRepo repository.ProductRepository,
	sRepo repository.SupplierRepository,
	puRepo repository.PurchaseRepository,
	pub events.Publisher,
	log *slog.Logger,
) PurchaseService {
	return &purchaseService{
		tx:           tx,
		productRepo:  pRepo,
		supplierRepo: sRepo,
		purchaseRepo: puRepo,
		publisher:    pub,
		log:          log,
		now:          time.Now,
	}
}

func (s *purchaseService) RecordPurchase(ctx context.Context, actor Actor, in PurchaseInput) (*PurchaseResult, error) {
	var purchase *model.Purchase
	err := s.tx.Do(ctx, func(tx *gorm.DB) error {
		var err error
		purchase, err = s.CreateWithin(tx, actor, in, model.SourceManual)
		return err
	})
	if err != nil {
		return nil, storageErr(err, "purchase")
	}

	s.log.Info("purchase recorded",
		"purchase_id", purchase.ID,
		"supplier_id", purchase.SupplierID,
		"status", purchase.Status,
		"total", purchase.Total.String(),
	)
	s.publish(ctx, events.Event{
		Type:     events.PurchaseRecorded,
		Message:  fmt.Sprintf("%s recorded a %s purchase of %s", actor.Name, purchase.Status, purchase.Total.StringFixed(2)),
		Actor:    actor.event(),
		EntityID: purchase.ID.String(),
		Data:     purchase,
	})
	return &PurchaseResult{
		TransactionID: purchase.ID,
		Total:         purchase.Total,
		Status:        purchase.Status,
	}, nil
}

func (s *purchaseService) CreateWithin(tx *gorm.DB, actor Actor, in PurchaseInput, source model.PurchaseSource) (*model.Purchase, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = model.PurchaseReceived
	}

	if _, err := s.supplierRepo.LockByID(tx, in.SupplierID); err != nil {
		return nil, storageErr(err, "supplier")
	}

	now := utcNow(s.now)
	purchase := &model.Purchase{
		SupplierID:   in.SupplierID,
		PurchaseDate: now,
		Total:        decimal.Zero,
		Status:       status,
		Source:       source,
	}
	if in.PurchaseDate != nil {
		purchase.PurchaseDate = in.PurchaseDate.UTC()
	}
	purchase.CreatedBy = actor.ID
	purchase.UpdatedBy = actor.ID

	supply := make(map[uuid.UUID]int, len(in.Lines))
	for i, l := range in.Lines {
		subtotal := l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity)))
		line := model.PurchaseLine{
			LineNo:    i + 1,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Subtotal:  subtotal,
		}
		line.CreatedBy = actor.ID
		line.UpdatedBy = actor.ID
		purchase.Lines = append(purchase.Lines, line)
		purchase.Total = purchase.Total.Add(subtotal)
		supply[l.ProductID] += l.Quantity
	}
	if err := checkQuantities(supply); err != nil {
		return nil, err
	}
	if in.Total != nil && !in.Total.Equal(purchase.Total) {
		return nil, fmt.Errorf("%w: total %s does not match computed total %s", ErrValidation, in.Total.String(), purchase.Total.String())
	}

	ids := sortedIDs(supply)
	var products []model.Product
	var err error
	if status == model.PurchaseReceived {
		products, err = s.productRepo.LockByIDs(tx, ids)
	} else {
		products, err = s.productRepo.FindByIDs(tx, ids)
	}
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(ids, products); len(missing) > 0 {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, missing[0])
	}

	if status == model.PurchaseReceived {
		purchase.ReceivedAt = &now
		for _, id := range ids {
			if err := s.productRepo.AdjustStock(tx, id, supply[id], actor.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := s.purchaseRepo.Create(tx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ReceivePurchase applies a requested purchase's increments. Only the call
// that flips the status applies them; every later call reports Applied=false.
func (s *purchaseService) ReceivePurchase(ctx context.Context, actor Actor, id uuid.UUID) (*ReceiveResult, error) {
	result := &ReceiveResult{PurchaseID: id}
	err := s.tx.Do(ctx, func(tx *gorm.DB) error {
		applied, err := s.purchaseRepo.MarkReceived(tx, id, utcNow(s.now), actor.ID)
		if err != nil {
			return err
		}
		if !applied {
			existing, err := s.purchaseRepo.FindHeader(tx, id)
			if err != nil {
				return err
			}
			result.Status = existing.Status
			result.Applied = false
			return nil
		}

		lines, err := s.purchaseRepo.FindLines(tx, id)
		if err != nil {
			return err
		}
		supply := make(map[uuid.UUID]int, len(lines))
		for _, l := range lines {
			supply[l.ProductID] += l.Quantity
		}
		ids := sortedIDs(supply)
		if _, err := s.productRepo.LockByIDs(tx, ids); err != nil {
			return err
		}
		for _, pid := range ids {
			if err := s.productRepo.AdjustStock(tx, pid, supply[pid], actor.ID); err != nil {
				return err
			}
		}
		result.Status = model.PurchaseReceived
		result.Applied = true
		return nil
	})
	if err != nil {
		return nil, storageErr(err, "purchase")
	}

	if result.Applied {
		s.log.Info("purchase received", "purchase_id", id, "by", actor.ID)
		s.publish(ctx, events.Event{
			Type:     events.PurchaseReceived,
			Message:  fmt.Sprintf("%s received purchase %s", actor.Name, id),
			Actor:    actor.event(),
			EntityID: id.String(),
		})
	}
	return result, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "purchase")
	}
	return purchase, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter model.PurchaseFilter) ([]model.Purchase, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	purchases, err := s.purchaseRepo.FindAll(ctx, filter)
	return purchases, storageErr(err, "purchases")
}

func (s *purchaseService) publish(ctx context.Context, e events.Event) {
	e.OccurredAt = utcNow(s.now)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", "type", e.Type, "err", err)
	}
}
