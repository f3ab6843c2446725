package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/api/responses"
	"github.com/angelmondragon/posengine-backend/api/validators"
	"github.com/angelmondragon/posengine-backend/internal/stock"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
)

type adjustStockRequest struct {
	VariantID   string `json:"variantId" validate:"required,uuid"`
	BranchID    string `json:"branchId" validate:"required,uuid"`
	Quantity    *int   `json:"quantity" validate:"required,gte=0"`
	MinQuantity *int   `json:"minQuantity,omitempty" validate:"omitempty,gte=0"`
}

// ListStock returns the records of a branch, defaulting to the caller's own.
func ListStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return stockQuery(svc, logg, stock.Service.ListByBranch)
}

func LowStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return stockQuery(svc, logg, stock.Service.LowStock)
}

// AdjustStock sets an absolute quantity.
func AdjustStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("stock"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := parseID("variantId", payload.VariantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := parseID("branchId", payload.BranchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Adjust(r.Context(), capability, stock.AdjustInput{
			VariantID:   variantID,
			BranchID:    branchID,
			Quantity:    *payload.Quantity,
			MinQuantity: payload.MinQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock.NewRecordDTO(*record))
	}
}

type stockLister func(stock.Service, context.Context, auth.Capability, uuid.UUID) ([]models.StockRecord, error)

func stockQuery(svc stock.Service, logg *logger.Logger, list stockLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("stock"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target := capability.BranchID
		if branchID != nil {
			target = *branchID
		}

		rows, err := list(svc, r.Context(), capability, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stock.NewRecordDTOs(rows))
	}
}
