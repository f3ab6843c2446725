// Package sales is the append-only sales ledger.
package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/pagination"
)

const saleNumberConstraint = "sales_sale_number_key"

// ListFilter is the caller-facing ledger query.
type ListFilter struct {
	BranchID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Cursor   string
}

// ListResult is one page of sales.
type ListResult struct {
	Items      []SaleDTO `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

type Service interface {
	Append(ctx context.Context, tx *gorm.DB, sale *models.Sale) error
	Get(ctx context.Context, capability auth.Capability, id uuid.UUID) (*SaleDTO, error)
	List(ctx context.Context, capability auth.Capability, filter ListFilter) (*ListResult, error)
	Summary(ctx context.Context, capability auth.Capability, now time.Time) (*SummaryDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &service{repo: repo}, nil
}

// Append writes a completed sale. Only checkout calls it, inside its transaction.
func (s *service) Append(ctx context.Context, tx *gorm.DB, sale *models.Sale) error {
	if tx == nil || sale == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction and sale required")
	}
	if len(sale.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale needs at least one line")
	}
	if !sale.Type.IsValid() || !sale.PaymentType.IsValid() || !sale.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale has invalid type or payment")
	}
	if sale.RemainingBalance.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "remaining balance cannot be negative")
	}
	for i := range sale.Lines {
		sale.Lines[i].Position = i + 1
	}
	if err := s.repo.Insert(tx.WithContext(ctx), sale); err != nil {
		if db.IsUniqueViolation(err, saleNumberConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sale number already used").
				WithDetails(map[string]any{"sale_number": sale.SaleNumber})
		}
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "insert sale")
	}
	return nil
}

func (s *service) Get(ctx context.Context, capability auth.Capability, id uuid.UUID) (*SaleDTO, error) {
	if capability.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing capability")
	}
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load sale")
	}
	if !capability.CanViewSalesOf(sale.BranchID) {
		return nil, pkgerrors.New(pkgerrors.CodePermissionDenied, "sale belongs to another branch")
	}
	dto := NewSaleDTO(*sale)
	return &dto, nil
}

// List pages the ledger newest first. Without the view-all grant the query is
// pinned to the caller's home branch.
func (s *service) List(ctx context.Context, capability auth.Capability, filter ListFilter) (*ListResult, error) {
	if capability.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing capability")
	}
	branchID := filter.BranchID
	switch {
	case branchID != nil && !capability.CanViewSalesOf(*branchID):
		return nil, pkgerrors.New(pkgerrors.CodePermissionDenied, "sales of another branch").
			WithDetails(map[string]any{"branch_id": branchID.String()})
	case branchID == nil && !capability.Permissions.ViewAllBranchesSales:
		home := capability.BranchID
		branchID = &home
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}

	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, ListQuery{
		BranchID: branchID,
		From:     filter.From,
		To:       filter.To,
		Limit:    filter.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "list sales")
	}

	page, next := pagination.Trim(rows, filter.Limit, func(sale models.Sale) pagination.Cursor {
		return pagination.Cursor{CreatedAt: sale.CreatedAt, ID: sale.ID}
	})
	result := &ListResult{Items: make([]SaleDTO, 0, len(page)), NextCursor: next}
	for _, sale := range page {
		result.Items = append(result.Items, NewSaleDTO(sale))
	}
	return result, nil
}

// Summary totals today and the current month in now's location. Callers
// without the view-all grant only see their home branch.
func (s *service) Summary(ctx context.Context, capability auth.Capability, now time.Time) (*SummaryDTO, error) {
	if capability.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing capability")
	}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthEnd := monthStart.AddDate(0, 1, 0)

	home := capability.BranchID
	var scope *uuid.UUID
	if !capability.Permissions.ViewAllBranchesSales {
		scope = &home
	}

	sums := make([]decimal.Decimal, 3)
	windows := []struct {
		from, to time.Time
		branch   *uuid.UUID
	}{
		{dayStart, dayEnd, scope},
		{monthStart, monthEnd, scope},
		{monthStart, monthEnd, &home},
	}
	for i, w := range windows {
		sum, err := s.repo.SumTotals(ctx, w.from, w.to, w.branch)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "sum sales")
		}
		sums[i] = sum
	}

	return &SummaryDTO{
		Today:       sums[0],
		Month:       sums[1],
		BranchMonth: sums[2],
		AllBranches: scope == nil,
	}, nil
}
