package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/api/responses"
	"github.com/angelmondragon/posengine-backend/api/validators"
	"github.com/angelmondragon/posengine-backend/internal/checkout"
	"github.com/angelmondragon/posengine-backend/internal/sales"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
)

const (
	defaultSalesPageSize = 20
	maxSalesPageSize     = 100
)

type checkoutRequest struct {
	Exchange      bool             `json:"exchange"`
	DepositAmount *decimal.Decimal `json:"depositAmount,omitempty"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,oneof=cash credit_card debit_card transfer"`
	Notes         string           `json:"notes,omitempty" validate:"max=500"`
}

// Checkout confirms the session cart as a sale.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("checkout"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), capability, checkout.Request{
			Exchange:      payload.Exchange,
			DepositAmount: payload.DepositAmount,
			PaymentMethod: enums.PaymentMethod(payload.PaymentMethod),
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListSales pages the ledger newest first.
func ListSales(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultSalesPageSize, 1, maxSalesPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), capability, sales.ListFilter{
			BranchID: branchID,
			From:     from,
			To:       to,
			Limit:    limit,
			Cursor:   r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetSale(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "saleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), capability, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// SalesSummary returns today's and this month's totals. clock is injectable
// for tests; nil means time.Now.
func SalesSummary(svc sales.Service, clock func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if clock == nil {
		clock = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), capability, clock())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
