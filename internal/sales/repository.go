package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/repo"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/pagination"
)

// ListQuery narrows the ledger read. A nil BranchID spans every branch.
type ListQuery struct {
	BranchID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Cursor   *pagination.Cursor
}

// Repository is the append-only sales store.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Insert writes the sale and its lines in tx.
func (r *Repository) Insert(tx *gorm.DB, sale *models.Sale) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(sale).Error
}

// FindByID loads the sale with its lines in position order.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("id = ?", id).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns up to query.Limit+1 sales, newest first.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Sale, error) {
	q := r.DB(ctx).Model(&models.Sale{})
	if query.BranchID != nil {
		q = q.Where("branch_id = ?", *query.BranchID)
	}
	if query.From != nil {
		q = q.Where("created_at >= ?", query.From.UTC())
	}
	if query.To != nil {
		q = q.Where("created_at < ?", query.To.UTC())
	}
	var rows []models.Sale
	err := q.Scopes(pagination.Newest(query.Cursor, query.Limit)).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Find(&rows).Error
	return rows, err
}

// SumTotals adds sale totals in [from, to). A nil branchID spans every branch.
func (r *Repository) SumTotals(ctx context.Context, from, to time.Time, branchID *uuid.UUID) (decimal.Decimal, error) {
	q := r.DB(ctx).
		Model(&models.Sale{}).
		Select("COALESCE(SUM(total), 0)").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC())
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var sum decimal.Decimal
	if err := q.Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum.Round(2), nil
}
