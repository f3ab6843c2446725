package sales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newSale(branchID uuid.UUID, number string, total string, at time.Time) *models.Sale {
	amount := dec(total)
	return &models.Sale{
		SaleNumber:       number,
		BranchID:         branchID,
		CashierID:        uuid.New(),
		Type:             enums.SaleTypeSale,
		PaymentType:      enums.PaymentTypeCash,
		PaymentMethod:    enums.PaymentMethodCash,
		PriceListID:      uuid.New(),
		Subtotal:         amount,
		DiscountTotal:    decimal.Zero,
		Total:            amount,
		AmountPaid:       amount,
		RemainingBalance: decimal.Zero,
		CreatedAt:        at,
		Lines: []models.SaleLine{{
			VariantID:       uuid.New(),
			SKU:             "ROJ-S",
			Name:            "Remera - Rojo - S",
			Quantity:        1,
			ListUnitPrice:   amount,
			DiscountPercent: decimal.Zero,
			UnitPrice:       amount,
			LineSubtotal:    amount,
		}},
	}
}

func appendSale(t *testing.T, client *db.Client, svc Service, sale *models.Sale) {
	t.Helper()
	require.NoError(t, client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Append(context.Background(), tx, sale)
	}))
}

func setup(t *testing.T) (*db.Client, Service) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)
	return client, svc
}

func TestAppendAndGet(t *testing.T) {
	client, svc := setup(t)
	branch := uuid.New()
	sale := newSale(branch, "20260301-000001", "72.00", time.Now().UTC())
	appendSale(t, client, svc, sale)

	home := auth.Capability{UserID: uuid.New(), BranchID: branch}
	got, err := svc.Get(context.Background(), home, sale.ID)
	require.NoError(t, err)
	require.Equal(t, "20260301-000001", got.SaleNumber)
	require.True(t, got.Total.Equal(dec("72")))
	require.Len(t, got.Lines, 1)
	require.Equal(t, 1, got.Lines[0].Position)

	other := auth.Capability{UserID: uuid.New(), BranchID: uuid.New()}
	_, err = svc.Get(context.Background(), other, sale.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	other.Permissions.ViewAllBranchesSales = true
	_, err = svc.Get(context.Background(), other, sale.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), home, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAppendRejectsDuplicateNumberAndEmptySale(t *testing.T) {
	client, svc := setup(t)
	branch := uuid.New()
	appendSale(t, client, svc, newSale(branch, "20260301-000001", "10", time.Now().UTC()))

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Append(context.Background(), tx, newSale(branch, "20260301-000001", "10", time.Now().UTC()))
	})
	require.Error(t, err)
	require.Equal(t, "sale number already used", pkgerrors.As(err).Message())

	empty := newSale(branch, "20260301-000002", "10", time.Now().UTC())
	empty.Lines = nil
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Append(context.Background(), tx, empty)
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListPaginatesNewestFirstWithinBranch(t *testing.T) {
	client, svc := setup(t)
	branch := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		appendSale(t, client, svc, newSale(branch, fmt.Sprintf("20260301-%06d", i+1), "10", base.Add(time.Duration(i)*time.Minute)))
	}
	appendSale(t, client, svc, newSale(uuid.New(), "20260301-000099", "10", base))

	capability := auth.Capability{UserID: uuid.New(), BranchID: branch}
	first, err := svc.List(context.Background(), capability, ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.Equal(t, "20260301-000005", first.Items[0].SaleNumber)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(context.Background(), capability, ListFilter{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Equal(t, "20260301-000003", second.Items[0].SaleNumber)

	third, err := svc.List(context.Background(), capability, ListFilter{Limit: 2, Cursor: second.NextCursor})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	require.Empty(t, third.NextCursor)

	foreign := uuid.New()
	_, err = svc.List(context.Background(), capability, ListFilter{BranchID: &foreign})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	_, err = svc.List(context.Background(), capability, ListFilter{Cursor: "%%%"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSummaryScopesByCapability(t *testing.T) {
	client, svc := setup(t)
	home := uuid.New()
	other := uuid.New()
	now := time.Date(2026, 3, 15, 18, 0, 0, 0, time.UTC)

	appendSale(t, client, svc, newSale(home, "20260315-000001", "100.50", now.Add(-time.Hour)))
	appendSale(t, client, svc, newSale(home, "20260302-000001", "50.00", now.AddDate(0, 0, -13)))
	appendSale(t, client, svc, newSale(other, "20260315-000002", "30.25", now.Add(-2*time.Hour)))
	appendSale(t, client, svc, newSale(home, "20260228-000001", "999.00", now.AddDate(0, -1, 0)))

	cashier := auth.Capability{UserID: uuid.New(), BranchID: home}
	summary, err := svc.Summary(context.Background(), cashier, now)
	require.NoError(t, err)
	require.Equal(t, "100.50", summary.Today.StringFixed(2))
	require.Equal(t, "150.50", summary.Month.StringFixed(2))
	require.Equal(t, "150.50", summary.BranchMonth.StringFixed(2))
	require.False(t, summary.AllBranches)

	owner := cashier
	owner.Permissions.ViewAllBranchesSales = true
	summary, err = svc.Summary(context.Background(), owner, now)
	require.NoError(t, err)
	require.Equal(t, "130.75", summary.Today.StringFixed(2))
	require.Equal(t, "180.75", summary.Month.StringFixed(2))
	require.Equal(t, "150.50", summary.BranchMonth.StringFixed(2))
	require.True(t, summary.AllBranches)
}
