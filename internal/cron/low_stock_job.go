package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/outbox/payloads"
)

const lowStockConsumer = "low-stock-alerts"

type lowStockSource interface {
	LowStockBranches(ctx context.Context) ([]uuid.UUID, error)
	LowStock(ctx context.Context, branchID *uuid.UUID) ([]models.StockRecord, error)
}

// alertGuard hands out one claim per record per UTC day.
type alertGuard interface {
	Claim(ctx context.Context, consumer string, subjectID uuid.UUID, at time.Time) (bool, error)
	Release(ctx context.Context, consumer string, subjectID uuid.UUID, at time.Time) error
}

type LowStockJobParams struct {
	Logger *logger.Logger
	Stock  lowStockSource
	Guard  alertGuard
	Outbox outbox.Emitter
	Tx     db.TxRunner
	Clock  func() time.Time
}

// LowStockJob queues one stock_low event per record per UTC day while the
// record stays at or below its minimum.
type LowStockJob struct {
	logg   *logger.Logger
	stock  lowStockSource
	guard  alertGuard
	outbox outbox.Emitter
	tx     db.TxRunner
	now    func() time.Time
}

func NewLowStockJob(params LowStockJobParams) (*LowStockJob, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.Stock == nil:
		return nil, fmt.Errorf("stock repository required")
	case params.Guard == nil:
		return nil, fmt.Errorf("idempotency guard required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &LowStockJob{
		logg:   params.Logger,
		stock:  params.Stock,
		guard:  params.Guard,
		outbox: params.Outbox,
		tx:     params.Tx,
		now:    clock,
	}, nil
}

func (j *LowStockJob) Name() string { return "low-stock-alerts" }

// Run walks branch by branch; one branch failing does not stop the rest.
func (j *LowStockJob) Run(ctx context.Context) error {
	branches, err := j.stock.LowStockBranches(ctx)
	if err != nil {
		return fmt.Errorf("list low stock branches: %w", err)
	}
	now := j.now().UTC()

	var errs error
	queued := 0
	for _, branchID := range branches {
		n, err := j.runBranch(ctx, branchID, now)
		queued += n
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("branch %s: %w", branchID, err))
		}
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"branches": len(branches),
		"queued":   queued,
	}), "low stock scan complete")
	return errs
}

func (j *LowStockJob) runBranch(ctx context.Context, branchID uuid.UUID, now time.Time) (int, error) {
	records, err := j.stock.LowStock(ctx, &branchID)
	if err != nil {
		return 0, err
	}
	var errs error
	queued := 0
	for _, record := range records {
		if record.MinQuantity == nil {
			continue
		}
		claimed, err := j.guard.Claim(ctx, lowStockConsumer, record.ID, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := j.emit(ctx, record, now); err != nil {
			if delErr := j.guard.Release(ctx, lowStockConsumer, record.ID, now); delErr != nil {
				err = multierr.Append(err, delErr)
			}
			errs = multierr.Append(errs, err)
			continue
		}
		queued++
	}
	return queued, errs
}

func (j *LowStockJob) emit(ctx context.Context, record models.StockRecord, now time.Time) error {
	return j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockLow,
			AggregateType: enums.AggregateStock,
			AggregateID:   record.ID,
			Data: payloads.StockLowEvent{
				StockRecordID: record.ID,
				VariantID:     record.VariantID,
				BranchID:      record.BranchID,
				Quantity:      record.Quantity,
				MinQuantity:   *record.MinQuantity,
				DetectedAt:    now,
			},
			OccurredAt: now,
		})
	})
}
