package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/posengine-backend/internal/repo"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
)

// Repository persists stock records.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Find returns the record or nil when the pair has none.
func (r *Repository) Find(ctx context.Context, variantID, branchID uuid.UUID) (*models.StockRecord, error) {
	var record models.StockRecord
	err := r.DB(ctx).
		Where("variant_id = ? AND branch_id = ?", variantID, branchID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *Repository) ListByBranch(ctx context.Context, branchID uuid.UUID) ([]models.StockRecord, error) {
	var rows []models.StockRecord
	err := r.DB(ctx).
		Where("branch_id = ?", branchID).
		Order("variant_id ASC").
		Find(&rows).Error
	return rows, err
}

// Upsert sets quantity absolutely. min_quantity is only overwritten when the
// record carries one, so a quantity-only set keeps the existing threshold.
func (r *Repository) Upsert(ctx context.Context, record *models.StockRecord) error {
	columns := []string{"quantity", "updated_at"}
	if record.MinQuantity != nil {
		columns = append(columns, "min_quantity")
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "variant_id"}, {Name: "branch_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(record).Error
}

// VariantExists reports whether the variant row is present, active or not.
func (r *Repository) VariantExists(ctx context.Context, variantID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.ProductVariant{}, "id = ?", variantID)
}

// DecrementIfAvailable subtracts qty only when at least qty is on hand.
// It reports false when no row satisfied the condition.
func (r *Repository) DecrementIfAvailable(ctx context.Context, variantID, branchID uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).
		Model(&models.StockRecord{}).
		Where("variant_id = ? AND branch_id = ? AND quantity >= ?", variantID, branchID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// LowStock lists records at or below their minimum. A nil branchID spans every branch.
func (r *Repository) LowStock(ctx context.Context, branchID *uuid.UUID) ([]models.StockRecord, error) {
	q := r.DB(ctx).
		Where("min_quantity IS NOT NULL AND quantity <= min_quantity")
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var rows []models.StockRecord
	err := q.Order("branch_id ASC").Order("variant_id ASC").Find(&rows).Error
	return rows, err
}

// LowStockBranches returns the branches holding at least one low record.
func (r *Repository) LowStockBranches(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.StockRecord{}).
		Where("min_quantity IS NOT NULL AND quantity <= min_quantity").
		Distinct("branch_id").
		Order("branch_id ASC").
		Pluck("branch_id", &ids).Error
	return ids, err
}
