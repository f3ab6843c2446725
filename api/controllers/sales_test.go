package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/checkout"
	"github.com/angelmondragon/posengine-backend/internal/sales"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

type stubCheckout struct {
	req checkout.Request
	err error
}

func (s *stubCheckout) Checkout(_ context.Context, _ auth.Capability, req checkout.Request) (*checkout.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.req = req
	return &checkout.Result{
		SaleID:           uuid.New(),
		SaleNumber:       "20260314-000001",
		Type:             enums.SaleTypeDeposit,
		Total:            decimal.RequireFromString("200"),
		AmountPaid:       decimal.RequireFromString("50"),
		RemainingBalance: decimal.RequireFromString("150"),
	}, nil
}

type stubSales struct {
	filter sales.ListFilter
	now    time.Time
}

func (s *stubSales) Append(context.Context, *gorm.DB, *models.Sale) error { return nil }

func (s *stubSales) Get(_ context.Context, _ auth.Capability, id uuid.UUID) (*sales.SaleDTO, error) {
	return &sales.SaleDTO{ID: id, SaleNumber: "20260314-000001"}, nil
}

func (s *stubSales) List(_ context.Context, _ auth.Capability, filter sales.ListFilter) (*sales.ListResult, error) {
	s.filter = filter
	return &sales.ListResult{Items: []sales.SaleDTO{}}, nil
}

func (s *stubSales) Summary(_ context.Context, _ auth.Capability, now time.Time) (*sales.SummaryDTO, error) {
	s.now = now
	return &sales.SummaryDTO{Today: decimal.RequireFromString("300")}, nil
}

func TestCheckoutDeposit(t *testing.T) {
	svc := &stubCheckout{}
	rec := serve(t, Checkout(svc, testLogger()), http.MethodPost, "/api/v1/sales",
		`{"depositAmount":"50","paymentMethod":"cash","notes":"retira el viernes"}`, withCapability(cashier()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, enums.PaymentMethodCash, svc.req.PaymentMethod)
	require.Equal(t, "50", svc.req.DepositAmount.String())

	var result map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &result))
	require.Equal(t, "20260314-000001", result["saleNumber"])
	require.Equal(t, "150", result["remainingBalance"])
}

func TestCheckoutErrors(t *testing.T) {
	rec := serve(t, Checkout(&stubCheckout{}, testLogger()), http.MethodPost, "/", `{"paymentMethod":"cheque"}`, withCapability(cashier()))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	stockErr := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{"available": 1})
	rec = serve(t, Checkout(&stubCheckout{err: stockErr}, testLogger()), http.MethodPost, "/", `{"paymentMethod":"cash"}`, withCapability(cashier()))
	require.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.Equal(t, string(pkgerrors.CodeInsufficientStock), env.Error.Code)
	require.EqualValues(t, 1, env.Error.Details["available"])

	depositErr := pkgerrors.New(pkgerrors.CodeInvalidDeposit, "deposit exceeds total")
	rec = serve(t, Checkout(&stubCheckout{err: depositErr}, testLogger()), http.MethodPost, "/", `{"paymentMethod":"cash","depositAmount":"250"}`, withCapability(cashier()))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListSalesParsesQuery(t *testing.T) {
	svc := &stubSales{}
	branch := uuid.New()
	rec := serve(t, ListSales(svc, testLogger()), http.MethodGet,
		"/api/v1/sales?limit=5&branchId="+branch.String()+"&from=2026-03-01&to=2026-03-31T23:59:59Z&cursor=abc", "", withCapability(cashier()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 5, svc.filter.Limit)
	require.Equal(t, branch, *svc.filter.BranchID)
	require.Equal(t, time.March, svc.filter.From.Month())
	require.Equal(t, "abc", svc.filter.Cursor)

	rec = serve(t, ListSales(svc, testLogger()), http.MethodGet, "/api/v1/sales", "", withCapability(cashier()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, defaultSalesPageSize, svc.filter.Limit)
	require.Nil(t, svc.filter.BranchID)

	rec = serve(t, ListSales(svc, testLogger()), http.MethodGet, "/api/v1/sales?limit=1000", "", withCapability(cashier()))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSaleAndSummary(t *testing.T) {
	svc := &stubSales{}
	id := uuid.New()
	rec := serve(t, GetSale(svc, testLogger()), http.MethodGet, "/", "", withCapability(cashier()), withParam("saleId", id.String()))
	require.Equal(t, http.StatusOK, rec.Code)

	fixed := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	rec = serve(t, SalesSummary(svc, func() time.Time { return fixed }, testLogger()), http.MethodGet, "/api/v1/sales/summary", "", withCapability(cashier()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, fixed, svc.now)

	var summary sales.SummaryDTO
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summary))
	require.True(t, summary.Today.Equal(decimal.RequireFromString("300")))
}
