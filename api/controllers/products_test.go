package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	product "github.com/angelmondragon/posengine-backend/internal/products"
	"github.com/angelmondragon/posengine-backend/internal/variants"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

type stubProductService struct {
	created     product.CreateInput
	filter      product.ListFilter
	deactivated uuid.UUID
	prices      product.PricesInput
	createErr   error
}

func (s *stubProductService) Create(_ context.Context, capability auth.Capability, input product.CreateInput) (uuid.UUID, error) {
	if s.createErr != nil {
		return uuid.Nil, s.createErr
	}
	if err := capability.RequireRole(enums.MemberRoleOwner, enums.MemberRoleManager); err != nil {
		return uuid.Nil, err
	}
	s.created = input
	return uuid.MustParse("6a1f3c0e-8b9d-4e2f-a1c3-7d5e9f0b2a44"), nil
}

func (s *stubProductService) List(_ context.Context, filter product.ListFilter) ([]product.ProductDTO, error) {
	s.filter = filter
	return []product.ProductDTO{{Name: "Remera"}}, nil
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubProductService) Deactivate(_ context.Context, _ auth.Capability, id uuid.UUID) error {
	s.deactivated = id
	return nil
}

func (s *stubProductService) UpdateVariantPrices(_ context.Context, _ auth.Capability, variantID uuid.UUID, input product.PricesInput) (*product.VariantDTO, error) {
	s.prices = input
	return &product.VariantDTO{ID: variantID}, nil
}

func (s *stubProductService) Preview(name string, definitions []types.AttributeDefinition) ([]variants.Draft, error) {
	return variants.Generate(definitions, name)
}

const createBody = `{
	"name": "Zapato",
	"productTypeId": "2c4b6e8a-1d3f-4a5b-9c7d-0e1f2a3b4c5d",
	"attributeDefinitions": [{"name": "Talle", "values": ["39"]}, {"name": "Color", "values": ["Negro"]}],
	"variants": [{
		"attributeValues": [{"name": "Talle", "value": "39"}, {"name": "Color", "value": "Negro"}],
		"skuSeed": "zap-39n",
		"prices": [{"priceListId": "9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a", "amount": "120.51"}]
	}]
}`

func TestCreateProduct(t *testing.T) {
	svc := &stubProductService{}
	owner := cashier()
	owner.Role = enums.MemberRoleOwner

	rec := serve(t, CreateProduct(svc, testLogger()), http.MethodPost, "/api/v1/products", createBody, withCapability(owner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Equal(t, "6a1f3c0e-8b9d-4e2f-a1c3-7d5e9f0b2a44", data["productId"])

	require.Equal(t, "Zapato", svc.created.Name)
	require.Len(t, svc.created.Variants, 1)
	require.Equal(t, "zap-39n", *svc.created.Variants[0].SKUSeed)
	require.Equal(t, "120.51", svc.created.Variants[0].Prices[0].Amount.String())
	require.Equal(t, "Color", svc.created.Variants[0].Attributes[1].Name)
}

func TestCreateProductRejects(t *testing.T) {
	svc := &stubProductService{}

	t.Run("missing capability", func(t *testing.T) {
		rec := serve(t, CreateProduct(svc, testLogger()), http.MethodPost, "/", createBody)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("cashier role", func(t *testing.T) {
		rec := serve(t, CreateProduct(svc, testLogger()), http.MethodPost, "/", createBody, withCapability(cashier()))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, string(pkgerrors.CodePermissionDenied), decode(t, rec).Error.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := serve(t, CreateProduct(svc, testLogger()), http.MethodPost, "/", `{"name":""}`, withCapability(cashier()))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decode(t, rec)
		require.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
		require.Contains(t, env.Error.Details, "productTypeId")
	})

	t.Run("duplicate sku", func(t *testing.T) {
		dup := &stubProductService{createErr: pkgerrors.New(pkgerrors.CodeDuplicateSKU, "sku already exists").WithDetails(map[string]any{"sku": "ZAP-39N"})}
		rec := serve(t, CreateProduct(dup, testLogger()), http.MethodPost, "/", createBody, withCapability(cashier()))
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "ZAP-39N", decode(t, rec).Error.Details["sku"])
	})
}

func TestListProductsPassesFilters(t *testing.T) {
	svc := &stubProductService{}
	typeID := uuid.New()
	rec := serve(t, ListProducts(svc, testLogger()), http.MethodGet, "/api/v1/products?search=rem&type="+typeID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "rem", svc.filter.Search)
	require.Equal(t, typeID, *svc.filter.TypeID)
	require.Nil(t, svc.filter.SupplierID)

	rec = serve(t, ListProducts(svc, testLogger()), http.MethodGet, "/api/v1/products?supplier=nope", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProductNotFound(t *testing.T) {
	rec := serve(t, GetProduct(&stubProductService{}, testLogger()), http.MethodGet, "/", "", withParam("productId", uuid.NewString()))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()

	rec := serve(t, DeleteProduct(svc, testLogger()), http.MethodDelete, "/", "", withCapability(cashier()), withParam("productId", "not-a-uuid"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, DeleteProduct(svc, testLogger()), http.MethodDelete, "/", "", withCapability(cashier()), withParam("productId", id.String()))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, id, svc.deactivated)
}

func TestUpdateVariantPrices(t *testing.T) {
	svc := &stubProductService{}
	body := `{"prices":[{"priceListId":"9d8c7b6a-5f4e-4d3c-8b2a-1f0e9d8c7b6a","amount":"99.90"}],"cost":"40"}`
	rec := serve(t, UpdateVariantPrices(svc, testLogger()), http.MethodPut, "/", body, withCapability(cashier()), withParam("variantId", uuid.NewString()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, svc.prices.Prices, 1)
	require.Equal(t, "40", svc.prices.Cost.String())
}

func TestPreviewVariants(t *testing.T) {
	body := `{"name":"Remera","attributeDefinitions":[{"name":"Talle","values":["S","M"]},{"name":"Color","values":["Rojo","Azul"]}]}`
	rec := serve(t, PreviewVariants(&stubProductService{}, testLogger()), http.MethodPost, "/", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Count    int              `json:"count"`
		Variants []variants.Draft `json:"variants"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Equal(t, 4, data.Count)
	require.Equal(t, "Remera - S - Rojo", data.Variants[0].DisplayName)
}
