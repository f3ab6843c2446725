// Package stock is the per-branch stock ledger: reads, absolute adjustments
// and the all-or-nothing decrement used at checkout.
package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/outbox/payloads"
)

// Line is one quantity to take out of stock.
type Line struct {
	VariantID uuid.UUID
	Quantity  int
}

// AdjustInput is an absolute stock set.
type AdjustInput struct {
	VariantID   uuid.UUID
	BranchID    uuid.UUID
	Quantity    int
	MinQuantity *int
}

// Service exposes the stock ledger.
type Service interface {
	Get(ctx context.Context, capability auth.Capability, variantID, branchID uuid.UUID) (int, error)
	ListByBranch(ctx context.Context, capability auth.Capability, branchID uuid.UUID) ([]models.StockRecord, error)
	Adjust(ctx context.Context, capability auth.Capability, input AdjustInput) (*models.StockRecord, error)
	DecrementForSale(ctx context.Context, tx *gorm.DB, capability auth.Capability, branchID uuid.UUID, lines []Line) error
	LowStock(ctx context.Context, capability auth.Capability, branchID uuid.UUID) ([]models.StockRecord, error)
}

type service struct {
	repo   *Repository
	tx     db.TxRunner
	outbox outbox.Emitter
	logg   *logger.Logger
}

// NewService wires the stock ledger.
func NewService(repo *Repository, tx db.TxRunner, emitter outbox.Emitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: emitter, logg: logg}, nil
}

// Get returns the quantity on hand, 0 when no record exists.
func (s *service) Get(ctx context.Context, capability auth.Capability, variantID, branchID uuid.UUID) (int, error) {
	if err := capability.RequireBranch(branchID); err != nil {
		return 0, err
	}
	record, err := s.repo.Find(ctx, variantID, branchID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load stock record")
	}
	if record == nil {
		return 0, nil
	}
	return record.Quantity, nil
}

func (s *service) ListByBranch(ctx context.Context, capability auth.Capability, branchID uuid.UUID) ([]models.StockRecord, error) {
	if err := capability.RequireBranch(branchID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "list stock records")
	}
	return rows, nil
}

// Adjust sets the quantity of a (variant, branch) pair and queues stock_adjusted.
func (s *service) Adjust(ctx context.Context, capability auth.Capability, input AdjustInput) (*models.StockRecord, error) {
	if err := capability.RequireBranch(input.BranchID); err != nil {
		return nil, err
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}
	if input.MinQuantity != nil && *input.MinQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min quantity cannot be negative").
			WithDetails(map[string]any{"min_quantity": *input.MinQuantity})
	}

	var saved *models.StockRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		found, err := txRepo.VariantExists(ctx, input.VariantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load variant")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
				WithDetails(map[string]any{"variant_id": input.VariantID.String()})
		}

		previous := 0
		existing, err := txRepo.Find(ctx, input.VariantID, input.BranchID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load stock record")
		}
		if existing != nil {
			previous = existing.Quantity
		}

		if err := txRepo.Upsert(ctx, &models.StockRecord{
			VariantID:   input.VariantID,
			BranchID:    input.BranchID,
			Quantity:    input.Quantity,
			MinQuantity: input.MinQuantity,
		}); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found").
					WithDetails(map[string]any{"variant_id": input.VariantID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "upsert stock record")
		}

		saved, err = txRepo.Find(ctx, input.VariantID, input.BranchID)
		if err != nil || saved == nil {
			return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "reload stock record")
		}

		branchID := capability.BranchID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateStock,
			AggregateID:   saved.ID,
			Actor:         &outbox.ActorRef{UserID: capability.UserID, BranchID: &branchID, Role: string(capability.Role)},
			Data: payloads.StockAdjustedEvent{
				StockRecordID:    saved.ID,
				VariantID:        saved.VariantID,
				BranchID:         saved.BranchID,
				PreviousQuantity: previous,
				Quantity:         saved.Quantity,
				MinQuantity:      saved.MinQuantity,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.PassThrough(err, "adjust stock")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"variant_id": input.VariantID.String(),
			"branch_id":  input.BranchID.String(),
			"quantity":   input.Quantity,
		})
		s.logg.Info(logCtx, "stock adjusted")
	}
	return saved, nil
}

// DecrementForSale takes every line out of branch stock inside tx. Lines for
// the same variant are merged. The first line that cannot be covered aborts
// with InsufficientStock; the caller's rollback undoes earlier decrements.
func (s *service) DecrementForSale(ctx context.Context, tx *gorm.DB, capability auth.Capability, branchID uuid.UUID, lines []Line) error {
	if err := capability.RequireBranch(branchID); err != nil {
		return err
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	merged, err := MergeLines(lines)
	if err != nil {
		return err
	}

	txRepo := s.repo.WithTx(tx)
	for _, line := range merged {
		ok, err := txRepo.DecrementIfAvailable(ctx, line.VariantID, branchID, line.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "decrement stock")
		}
		if ok {
			continue
		}
		available := 0
		if record, ferr := txRepo.Find(ctx, line.VariantID, branchID); ferr == nil && record != nil {
			available = record.Quantity
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"variant_id": line.VariantID.String(),
				"branch_id":  branchID.String(),
				"requested":  line.Quantity,
				"available":  available,
			})
	}
	return nil
}

func (s *service) LowStock(ctx context.Context, capability auth.Capability, branchID uuid.UUID) ([]models.StockRecord, error) {
	if err := capability.RequireBranch(branchID); err != nil {
		return nil, err
	}
	rows, err := s.repo.LowStock(ctx, &branchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "list low stock")
	}
	return rows, nil
}

// MergeLines sums quantities per variant and orders by variant id so
// concurrent checkouts lock rows in the same order.
func MergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	totals := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if line.VariantID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
				WithDetails(map[string]any{"variant_id": line.VariantID.String(), "quantity": line.Quantity})
		}
		totals[line.VariantID] += line.Quantity
	}
	merged := make([]Line, 0, len(totals))
	for id, qty := range totals {
		merged = append(merged, Line{VariantID: id, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].VariantID.String() < merged[j].VariantID.String()
	})
	return merged, nil
}
