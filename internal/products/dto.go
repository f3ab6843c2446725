package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// ProductDTO is the catalog payload returned to clients.
type ProductDTO struct {
	ID                   uuid.UUID                   `json:"id"`
	Name                 string                      `json:"name"`
	SupplierID           *uuid.UUID                  `json:"supplierId,omitempty"`
	ProductTypeID        uuid.UUID                   `json:"productTypeId"`
	AttributeDefinitions []types.AttributeDefinition `json:"attributeDefinitions"`
	Active               bool                        `json:"active"`
	Variants             []VariantDTO                `json:"variants"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

// VariantDTO is one sellable combination.
type VariantDTO struct {
	ID          uuid.UUID             `json:"id"`
	Attributes  []types.AttributePair `json:"attributes"`
	DisplayName string                `json:"displayName"`
	SKU         string                `json:"sku"`
	Cost        *decimal.Decimal      `json:"cost,omitempty"`
	Active      bool                  `json:"active"`
	Prices      []PriceDTO            `json:"prices"`
}

type PriceDTO struct {
	PriceListID uuid.UUID       `json:"priceListId"`
	Amount      decimal.Decimal `json:"amount"`
}

func NewProductDTO(product models.Product) ProductDTO {
	defs := []types.AttributeDefinition(product.AttributeDefinitions)
	if defs == nil {
		defs = []types.AttributeDefinition{}
	}
	out := ProductDTO{
		ID:                   product.ID,
		Name:                 product.Name,
		SupplierID:           product.SupplierID,
		ProductTypeID:        product.ProductTypeID,
		AttributeDefinitions: defs,
		Active:               product.Active,
		Variants:             make([]VariantDTO, 0, len(product.Variants)),
		CreatedAt:            product.CreatedAt,
		UpdatedAt:            product.UpdatedAt,
	}
	for _, variant := range product.Variants {
		out.Variants = append(out.Variants, NewVariantDTO(variant))
	}
	return out
}

func NewVariantDTO(variant models.ProductVariant) VariantDTO {
	attrs := []types.AttributePair(variant.Attributes)
	if attrs == nil {
		attrs = []types.AttributePair{}
	}
	out := VariantDTO{
		ID:          variant.ID,
		Attributes:  attrs,
		DisplayName: variant.DisplayName,
		SKU:         variant.SKU,
		Cost:        variant.Cost,
		Active:      variant.Active,
		Prices:      make([]PriceDTO, 0, len(variant.Prices)),
	}
	for _, price := range variant.Prices {
		out.Prices = append(out.Prices, PriceDTO{PriceListID: price.PriceListID, Amount: price.Amount})
	}
	return out
}

func NewProductDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for _, product := range products {
		out = append(out, NewProductDTO(product))
	}
	return out
}
