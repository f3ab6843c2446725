package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/posengine-backend/internal/variants"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

type fixture struct {
	client  *db.Client
	svc     Service
	catalog dbtest.Catalog
	owner   auth.Capability
	cashier auth.Capability
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	catalog := dbtest.SeedCatalog(t, client.DB(), "ROJ", "100.00")
	emitter := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	svc, err := NewService(NewRepository(client.DB()), client, emitter, variants.NewGenerator(10), nil)
	require.NoError(t, err)

	branch := uuid.New()
	return fixture{
		client:  client,
		svc:     svc,
		catalog: catalog,
		owner:   auth.Capability{UserID: uuid.New(), BranchID: branch, Role: enums.MemberRoleOwner},
		cashier: auth.Capability{UserID: uuid.New(), BranchID: branch, Role: enums.MemberRoleCashier},
	}
}

func shoeDefinitions() []types.AttributeDefinition {
	return []types.AttributeDefinition{
		{Name: "Talle", Values: []string{"39", "40", "41"}},
		{Name: "Color", Values: []string{"Negro", "Marrón"}},
	}
}

func TestCreateGeneratesVariants(t *testing.T) {
	f := newFixture(t)
	id, err := f.svc.Create(context.Background(), f.owner, CreateInput{
		Name:                 " Zapato ",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: shoeDefinitions(),
	})
	require.NoError(t, err)

	product, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Zapato", product.Name)
	require.Len(t, product.Variants, 6)

	skus := map[string]string{}
	for _, variant := range product.Variants {
		skus[variant.SKU] = variant.DisplayName
		require.Len(t, variant.Attributes, 2)
		require.Equal(t, "Talle", variant.Attributes[0].Name)
	}
	require.Equal(t, "Zapato - 39 - Negro", skus["39-NEG"])
	require.Equal(t, "Zapato - 41 - Marrón", skus["41-MAR"])
}

func TestCreateWithSubmittedVariants(t *testing.T) {
	f := newFixture(t)
	seed := "  zap-39n "
	cost := decimal.RequireFromString("40")
	id, err := f.svc.Create(context.Background(), f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: shoeDefinitions(),
		Variants: []VariantInput{
			{
				Attributes: variants.Attributes{{Name: "talle", Value: "39"}, {Name: "Color", Value: " Negro "}},
				SKUSeed:    &seed,
				Cost:       &cost,
				Prices:     []PriceInput{{PriceListID: f.catalog.PriceList.ID, Amount: decimal.RequireFromString("120.505")}},
			},
			{
				Attributes: variants.Attributes{{Name: "Talle", Value: "40"}, {Name: "Color", Value: "Negro"}},
			},
		},
	})
	require.NoError(t, err)

	product, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, product.Variants, 2)

	var seeded *VariantDTO
	for i := range product.Variants {
		if product.Variants[i].SKU == "ZAP-39N" {
			seeded = &product.Variants[i]
		}
	}
	require.NotNil(t, seeded)
	require.Equal(t, "Zapato - 39 - Negro", seeded.DisplayName)
	require.Equal(t, "Talle", seeded.Attributes[0].Name)
	require.Len(t, seeded.Prices, 1)
	require.Equal(t, "120.51", seeded.Prices[0].Amount.StringFixed(2))
	require.NotNil(t, seeded.Cost)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.cashier, CreateInput{Name: "Zapato", ProductTypeID: f.catalog.ProductType.ID, AttributeDefinitions: shoeDefinitions()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{Name: "Zapato", ProductTypeID: f.catalog.ProductType.ID})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: []types.AttributeDefinition{{Name: "Talle", Values: []string{" ", ""}}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: shoeDefinitions(),
		Variants: []VariantInput{
			{Attributes: variants.Attributes{{Name: "Talle", Value: "39"}}},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        uuid.New(),
		AttributeDefinitions: shoeDefinitions(),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{
		Name:          "Medias",
		ProductTypeID: f.catalog.ProductType.ID,
		AttributeDefinitions: []types.AttributeDefinition{
			{Name: "Talle", Values: []string{"1", "2", "3", "4"}},
			{Name: "Color", Values: []string{"a", "b", "c"}},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateDuplicateSKU(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	taken := "roj"
	_, err := f.svc.Create(ctx, f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: shoeDefinitions(),
		Variants: []VariantInput{
			{Attributes: variants.Attributes{{Name: "Talle", Value: "39"}, {Name: "Color", Value: "Negro"}}, SKUSeed: &taken},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicateSKU))

	same := "X-1"
	_, err = f.svc.Create(ctx, f.owner, CreateInput{
		Name:                 "Zapato",
		ProductTypeID:        f.catalog.ProductType.ID,
		AttributeDefinitions: shoeDefinitions(),
		Variants: []VariantInput{
			{Attributes: variants.Attributes{{Name: "Talle", Value: "39"}, {Name: "Color", Value: "Negro"}}, SKUSeed: &same},
			{Attributes: variants.Attributes{{Name: "Talle", Value: "40"}, {Name: "Color", Value: "Negro"}}, SKUSeed: &same},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicateSKU))

	_, err = f.svc.Create(ctx, f.owner, CreateInput{Name: "Zapato", ProductTypeID: f.catalog.ProductType.ID, AttributeDefinitions: shoeDefinitions()})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.owner, CreateInput{Name: "Zapatilla", ProductTypeID: f.catalog.ProductType.ID, AttributeDefinitions: shoeDefinitions()})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDuplicateSKU))

	var count int64
	require.NoError(t, f.client.DB().Model(&models.Product{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestListFiltersActiveProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherType := models.ProductType{ID: uuid.New(), Name: "Calzado"}
	require.NoError(t, f.client.DB().Create(&otherType).Error)

	zapato, err := f.svc.Create(ctx, f.owner, CreateInput{Name: "Zapato", ProductTypeID: otherType.ID, AttributeDefinitions: shoeDefinitions()})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Remera", all[0].Name)
	require.Equal(t, "Zapato", all[1].Name)

	byType, err := f.svc.List(ctx, ListFilter{TypeID: &otherType.ID})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	require.Equal(t, zapato, byType[0].ID)

	bySearch, err := f.svc.List(ctx, ListFilter{Search: "rem"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	bySKU, err := f.svc.List(ctx, ListFilter{Search: "41-neg"})
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	require.Equal(t, zapato, bySKU[0].ID)
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	productID := f.catalog.Product.ID

	err := f.svc.Deactivate(ctx, f.cashier, productID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	require.NoError(t, f.svc.Deactivate(ctx, f.owner, productID))
	require.NoError(t, f.svc.Deactivate(ctx, f.owner, productID))

	listed, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Empty(t, listed)

	product, err := f.svc.Get(ctx, productID)
	require.NoError(t, err)
	require.False(t, product.Active)
	require.Len(t, product.Variants, 1)
	require.False(t, product.Variants[0].Active)

	var events int64
	require.NoError(t, f.client.DB().Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventProductDeactivated).Count(&events).Error)
	require.EqualValues(t, 1, events)

	err = f.svc.Deactivate(ctx, f.owner, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateVariantPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	variantID := f.catalog.Variant.ID
	second := models.PriceList{ID: uuid.New(), Name: "Lista 2", Active: true}
	require.NoError(t, f.client.DB().Create(&second).Error)

	_, err := f.svc.UpdateVariantPrices(ctx, f.cashier, variantID, PricesInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePermissionDenied))

	_, err = f.svc.UpdateVariantPrices(ctx, f.owner, variantID, PricesInput{Prices: []PriceInput{
		{PriceListID: second.ID, Amount: decimal.NewFromInt(1)},
		{PriceListID: second.ID, Amount: decimal.NewFromInt(2)},
	}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cost := decimal.RequireFromString("55")
	updated, err := f.svc.UpdateVariantPrices(ctx, f.owner, variantID, PricesInput{
		Prices: []PriceInput{{PriceListID: second.ID, Amount: decimal.RequireFromString("130")}},
		Cost:   &cost,
	})
	require.NoError(t, err)
	require.Len(t, updated.Prices, 1)
	require.Equal(t, second.ID, updated.Prices[0].PriceListID)
	require.Equal(t, "130.00", updated.Prices[0].Amount.StringFixed(2))
	require.NotNil(t, updated.Cost)
	require.Equal(t, "55.00", updated.Cost.StringFixed(2))

	_, err = f.svc.UpdateVariantPrices(ctx, f.owner, uuid.New(), PricesInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	drafts, err := f.svc.Preview("Zapato", shoeDefinitions())
	require.NoError(t, err)
	require.Len(t, drafts, 6)
	require.Equal(t, "39-NEG", drafts[0].SKU)

	var count int64
	require.NoError(t, f.client.DB().Model(&models.ProductVariant{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	_, err = f.svc.Preview("Zapato", nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
