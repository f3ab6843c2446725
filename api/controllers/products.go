package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/api/responses"
	"github.com/angelmondragon/posengine-backend/api/validators"
	product "github.com/angelmondragon/posengine-backend/internal/products"
	"github.com/angelmondragon/posengine-backend/internal/variants"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

type priceRequest struct {
	PriceListID string          `json:"priceListId" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
}

type variantRequest struct {
	AttributeValues []types.AttributePair `json:"attributeValues" validate:"required,min=1,dive"`
	SKUSeed         *string               `json:"skuSeed,omitempty"`
	Prices          []priceRequest        `json:"prices" validate:"dive"`
	Cost            *decimal.Decimal      `json:"cost,omitempty"`
}

type createProductRequest struct {
	Name                 string                      `json:"name" validate:"required,max=200"`
	SupplierID           *string                     `json:"supplierId,omitempty" validate:"omitempty,uuid"`
	ProductTypeID        string                      `json:"productTypeId" validate:"required,uuid"`
	AttributeDefinitions []types.AttributeDefinition `json:"attributeDefinitions" validate:"required,min=1"`
	Variants             []variantRequest            `json:"variants" validate:"dive"`
}

type updatePricesRequest struct {
	Prices []priceRequest   `json:"prices" validate:"dive"`
	Cost   *decimal.Decimal `json:"cost,omitempty"`
}

type previewRequest struct {
	Name                 string                      `json:"name" validate:"required"`
	AttributeDefinitions []types.AttributeDefinition `json:"attributeDefinitions" validate:"required,min=1"`
}

// CreateProduct persists a product with generated or submitted variants.
func CreateProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := svc.Create(r.Context(), capability, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"productId": id.String()})
	}
}

// ListProducts returns active products with their active variants.
func ListProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		typeID, err := validators.ParseQueryUUID(r, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplierID, err := validators.ParseQueryUUID(r, "supplier")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), product.ListFilter{
			Search:     strings.TrimSpace(r.URL.Query().Get("search")),
			TypeID:     typeID,
			SupplierID: supplierID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		id, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// DeleteProduct soft-deletes a product and its variants.
func DeleteProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), capability, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UpdateVariantPrices(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		capability, err := capabilityFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.ParsePathUUID(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updatePricesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		prices, err := toPriceInputs(payload.Prices)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateVariantPrices(r.Context(), capability, variantID, product.PricesInput{Prices: prices, Cost: payload.Cost})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// PreviewVariants runs the generator without persisting anything.
func PreviewVariants(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("product"))
			return
		}
		var payload previewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		drafts, err := svc.Preview(payload.Name, payload.AttributeDefinitions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"count": len(drafts), "variants": drafts})
	}
}

func (p createProductRequest) toInput() (product.CreateInput, error) {
	typeID, err := parseID("productTypeId", p.ProductTypeID)
	if err != nil {
		return product.CreateInput{}, err
	}
	input := product.CreateInput{
		Name:                 p.Name,
		ProductTypeID:        typeID,
		AttributeDefinitions: p.AttributeDefinitions,
		Variants:             make([]product.VariantInput, 0, len(p.Variants)),
	}
	if p.SupplierID != nil {
		id, err := parseID("supplierId", *p.SupplierID)
		if err != nil {
			return product.CreateInput{}, err
		}
		input.SupplierID = &id
	}
	for _, v := range p.Variants {
		prices, err := toPriceInputs(v.Prices)
		if err != nil {
			return product.CreateInput{}, err
		}
		input.Variants = append(input.Variants, product.VariantInput{
			Attributes: variants.Attributes(v.AttributeValues),
			SKUSeed:    v.SKUSeed,
			Prices:     prices,
			Cost:       v.Cost,
		})
	}
	return input, nil
}

func toPriceInputs(in []priceRequest) ([]product.PriceInput, error) {
	out := make([]product.PriceInput, 0, len(in))
	for _, p := range in {
		id, err := parseID("priceListId", p.PriceListID)
		if err != nil {
			return nil, err
		}
		out = append(out, product.PriceInput{PriceListID: id, Amount: p.Amount})
	}
	return out, nil
}
