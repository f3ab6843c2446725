package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// Catalog is a minimal seeded catalog: one product with one variant priced on one list.
type Catalog struct {
	ProductType models.ProductType
	PriceList   models.PriceList
	Product     models.Product
	Variant     models.ProductVariant
}

// SeedCatalog inserts a cash-eligible product with a single variant priced at amount.
func SeedCatalog(t testing.TB, conn *gorm.DB, sku, amount string) Catalog {
	t.Helper()

	productType := models.ProductType{ID: uuid.New(), Name: "Indumentaria", CashDiscountEligible: true}
	priceList := models.PriceList{ID: uuid.New(), Name: "Lista 1", Active: true}
	mustCreate(t, conn, &productType)
	mustCreate(t, conn, &priceList)

	product := SeedProduct(t, conn, productType.ID, "Remera")
	variant := SeedVariant(t, conn, product.ID, sku, map[uuid.UUID]string{priceList.ID: amount})

	return Catalog{ProductType: productType, PriceList: priceList, Product: product, Variant: variant}
}

// SeedProduct inserts an active product with a single Color definition.
func SeedProduct(t testing.TB, conn *gorm.DB, productTypeID uuid.UUID, name string) models.Product {
	t.Helper()
	product := models.Product{
		ID:                   uuid.New(),
		Name:                 name,
		ProductTypeID:        productTypeID,
		AttributeDefinitions: types.AttributeDefinitions{{Name: "Color", Values: []string{"Rojo", "Azul"}}},
		Active:               true,
	}
	mustCreate(t, conn, &product)
	return product
}

// SeedVariant inserts an active variant with the given list prices.
func SeedVariant(t testing.TB, conn *gorm.DB, productID uuid.UUID, sku string, prices map[uuid.UUID]string) models.ProductVariant {
	t.Helper()
	variant := models.ProductVariant{
		ID:          uuid.New(),
		ProductID:   productID,
		Attributes:  types.AttributePairs{{Name: "Color", Value: "Rojo"}},
		DisplayName: "Remera - Rojo",
		SKU:         sku,
		Active:      true,
	}
	mustCreate(t, conn, &variant)
	for listID, amount := range prices {
		price := models.VariantPrice{
			ID:          uuid.New(),
			VariantID:   variant.ID,
			PriceListID: listID,
			Amount:      decimal.RequireFromString(amount),
		}
		mustCreate(t, conn, &price)
		variant.Prices = append(variant.Prices, price)
	}
	return variant
}

// SeedStock inserts a stock record.
func SeedStock(t testing.TB, conn *gorm.DB, variantID, branchID uuid.UUID, quantity int, minQuantity *int) models.StockRecord {
	t.Helper()
	record := models.StockRecord{
		ID:          uuid.New(),
		VariantID:   variantID,
		BranchID:    branchID,
		Quantity:    quantity,
		MinQuantity: minQuantity,
	}
	mustCreate(t, conn, &record)
	return record
}

func mustCreate(t testing.TB, conn *gorm.DB, value any) {
	t.Helper()
	if err := conn.Create(value).Error; err != nil {
		t.Fatalf("seed %T: %v", value, err)
	}
}
