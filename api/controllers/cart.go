package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/api/responses"
	"github.com/angelmondragon/posengine-backend/api/validators"
	"github.com/angelmondragon/posengine-backend/internal/cart"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

type cartLineRequest struct {
	VariantID       string           `json:"variantId" validate:"required,uuid"`
	BranchID        *string          `json:"branchId,omitempty" validate:"omitempty,uuid"`
	Quantity        int              `json:"quantity" validate:"required,gt=0"`
	CustomUnitPrice *decimal.Decimal `json:"customUnitPrice,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discountPercent,omitempty"`
}

type replaceCartRequest struct {
	PriceListID string            `json:"priceListId" validate:"required,uuid"`
	PaymentType string            `json:"paymentType,omitempty" validate:"omitempty,oneof=cash card"`
	Lines       []cartLineRequest `json:"lines" validate:"dive"`
}

type cartSettingsRequest struct {
	PriceListID *string `json:"priceListId,omitempty" validate:"omitempty,uuid"`
	PaymentType *string `json:"paymentType,omitempty" validate:"omitempty,oneof=cash card"`
}

type updateCartLineRequest struct {
	Quantity        *int                  `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	CustomUnitPrice types.NullableDecimal `json:"customUnitPrice"`
	DiscountPercent *decimal.Decimal      `json:"discountPercent,omitempty"`
}

func GetCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.Get(r.Context(), capability)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// ReplaceCart overwrites the session cart.
func ReplaceCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload replaceCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		priceListID, err := parseID("priceListId", payload.PriceListID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := cart.ReplaceInput{
			PriceListID: priceListID,
			PaymentType: enums.PaymentType(payload.PaymentType),
			Lines:       make([]cart.Line, 0, len(payload.Lines)),
		}
		for _, line := range payload.Lines {
			parsed, err := line.toLine()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Lines = append(input.Lines, parsed)
		}

		c, err := svc.Replace(r.Context(), capability, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func DiscardCart(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Discard(r.Context(), capability); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateCartSettings switches the price list or the payment type.
func UpdateCartSettings(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartSettingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input cart.SettingsInput
		if payload.PriceListID != nil {
			id, err := parseID("priceListId", *payload.PriceListID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.PriceListID = &id
		}
		if payload.PaymentType != nil {
			paymentType := enums.PaymentType(*payload.PaymentType)
			input.PaymentType = &paymentType
		}

		c, err := svc.UpdateSettings(r.Context(), capability, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// AddCartLine merges into an existing line of the same variant and branch.
func AddCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := payload.toLine()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.AddLine(r.Context(), capability, line)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// UpdateCartLine patches quantity, manual price or discount. A quantity of 0
// removes the line; customUnitPrice null clears the override.
func UpdateCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key, err := lineKeyFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := svc.UpdateLine(r.Context(), capability, key, cart.UpdateLineInput{
			Quantity:        payload.Quantity,
			CustomUnitPrice: payload.CustomUnitPrice,
			DiscountPercent: payload.DiscountPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func RemoveCartLine(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key, err := lineKeyFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c, err := svc.RemoveLine(r.Context(), capability, key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// lineKeyFrom reads the variant path param and the optional branchId query.
// Without branchId the line is looked up on the cart's home branch.
func lineKeyFrom(r *http.Request) (cart.LineKey, error) {
	variantID, err := validators.ParsePathUUID(r, "variantId")
	if err != nil {
		return cart.LineKey{}, err
	}
	branchID, err := validators.ParseQueryUUID(r, "branchId")
	if err != nil {
		return cart.LineKey{}, err
	}
	key := cart.LineKey{VariantID: variantID}
	if branchID != nil {
		key.BranchID = *branchID
	}
	return key, nil
}

// CartTotal resolves every line against the cart's price list and payment type.
func CartTotal(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("cart"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := svc.Totals(r.Context(), capability)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

func (l cartLineRequest) toLine() (cart.Line, error) {
	variantID, err := parseID("variantId", l.VariantID)
	if err != nil {
		return cart.Line{}, err
	}
	line := cart.Line{
		VariantID:       variantID,
		Quantity:        l.Quantity,
		CustomUnitPrice: l.CustomUnitPrice,
	}
	if l.BranchID != nil {
		branchID, err := parseID("branchId", *l.BranchID)
		if err != nil {
			return cart.Line{}, err
		}
		line.BranchID = branchID
	}
	if l.DiscountPercent != nil {
		line.DiscountPercent = *l.DiscountPercent
	}
	return line, nil
}
