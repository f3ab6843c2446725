// Package product is the catalog surface: product creation with generated or
// submitted variants, listing, soft deletion and variant price maintenance.
package product

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/variants"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

const skuConstraint = "product_variants_sku_key"

// PriceInput is one list price.
type PriceInput struct {
	PriceListID uuid.UUID
	Amount      decimal.Decimal
}

// VariantInput is a client-submitted variant. SKUSeed replaces the generated
// SKU after trimming and upper-casing.
type VariantInput struct {
	Attributes variants.Attributes
	SKUSeed    *string
	Prices     []PriceInput
	Cost       *decimal.Decimal
}

// CreateInput describes a new product. Variants are generated from the
// definitions when none are submitted.
type CreateInput struct {
	Name                 string
	SupplierID           *uuid.UUID
	ProductTypeID        uuid.UUID
	AttributeDefinitions []types.AttributeDefinition
	Variants             []VariantInput
}

// PricesInput replaces the price set and cost of a variant.
type PricesInput struct {
	Prices []PriceInput
	Cost   *decimal.Decimal
}

// Service exposes catalog operations.
type Service interface {
	Create(ctx context.Context, capability auth.Capability, input CreateInput) (uuid.UUID, error)
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Deactivate(ctx context.Context, capability auth.Capability, id uuid.UUID) error
	UpdateVariantPrices(ctx context.Context, capability auth.Capability, variantID uuid.UUID, input PricesInput) (*VariantDTO, error)
	Preview(name string, definitions []types.AttributeDefinition) ([]variants.Draft, error)
}

type service struct {
	repo      *Repository
	tx        db.TxRunner
	outbox    outbox.Emitter
	generator variants.Generator
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(repo *Repository, tx db.TxRunner, emitter outbox.Emitter, generator variants.Generator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if generator.MaxVariants <= 0 {
		generator = variants.NewGenerator(0)
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    emitter,
		generator: generator,
		logg:      logg,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, capability auth.Capability, input CreateInput) (uuid.UUID, error) {
	if err := capability.RequireRole(enums.MemberRoleOwner, enums.MemberRoleManager); err != nil {
		return uuid.Nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.ProductTypeID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "product type is required")
	}
	if len(input.AttributeDefinitions) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one attribute definition is required")
	}
	if err := variants.ValidateDefinitions(input.AttributeDefinitions); err != nil {
		return uuid.Nil, err
	}
	definitions := variants.NormalizeDefinitions(input.AttributeDefinitions)

	rows, err := s.buildVariants(name, definitions, input.Variants)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.checkReferences(ctx, input.ProductTypeID, rows); err != nil {
		return uuid.Nil, err
	}
	if err := s.checkSKUs(ctx, rows); err != nil {
		return uuid.Nil, err
	}

	product := &models.Product{
		ID:                   uuid.New(),
		Name:                 name,
		SupplierID:           input.SupplierID,
		ProductTypeID:        input.ProductTypeID,
		AttributeDefinitions: types.AttributeDefinitions(definitions),
		Active:               true,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateProduct(ctx, product); err != nil {
			return err
		}
		variantRows := make([]models.ProductVariant, 0, len(rows))
		var prices []models.VariantPrice
		for _, row := range rows {
			row.variant.ProductID = product.ID
			variantRows = append(variantRows, row.variant)
			prices = append(prices, row.prices...)
		}
		if err := txRepo.CreateVariants(ctx, variantRows); err != nil {
			return err
		}
		return txRepo.CreatePrices(ctx, prices)
	})
	if err != nil {
		if db.IsUniqueViolation(err, skuConstraint) {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateSKU, err, "sku already exists")
		}
		return uuid.Nil, pkgerrors.PassThrough(err, "create product")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id": product.ID.String(),
			"variants":   len(rows),
		}), "product created")
	}
	return product.ID, nil
}

type variantRow struct {
	variant models.ProductVariant
	prices  []models.VariantPrice
}

func (s *service) buildVariants(name string, definitions []types.AttributeDefinition, inputs []VariantInput) ([]variantRow, error) {
	if len(inputs) == 0 {
		drafts, err := s.generator.Generate(definitions, name)
		if err != nil {
			return nil, err
		}
		rows := make([]variantRow, 0, len(drafts))
		for _, draft := range drafts {
			rows = append(rows, variantRow{variant: newVariant(draft, nil)})
		}
		return rows, nil
	}

	if len(inputs) > s.generator.MaxVariants {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many variants").
			WithDetails(map[string]any{"count": len(inputs), "max": s.generator.MaxVariants})
	}
	rows := make([]variantRow, 0, len(inputs))
	for i, in := range inputs {
		if err := in.Attributes.Validate(definitions); err != nil {
			return nil, withVariantIndex(err, i)
		}
		attrs := in.Attributes.Normalized(definitions)
		draft := variants.Draft{
			Attributes:  attrs,
			DisplayName: variants.DisplayName(name, attrs),
			SKU:         variants.SKU(attrs),
		}
		if in.SKUSeed != nil {
			if seed := strings.ToUpper(strings.TrimSpace(*in.SKUSeed)); seed != "" {
				draft.SKU = seed
			}
		}
		if err := validateCost(in.Cost); err != nil {
			return nil, withVariantIndex(err, i)
		}
		row := variantRow{variant: newVariant(draft, in.Cost)}
		prices, err := buildPrices(row.variant.ID, in.Prices)
		if err != nil {
			return nil, withVariantIndex(err, i)
		}
		row.prices = prices
		rows = append(rows, row)
	}
	if err := uniqueCombinations(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func newVariant(draft variants.Draft, cost *decimal.Decimal) models.ProductVariant {
	return models.ProductVariant{
		ID:          uuid.New(),
		Attributes:  types.AttributePairs(draft.Attributes),
		DisplayName: draft.DisplayName,
		SKU:         draft.SKU,
		Cost:        cost,
		Active:      true,
	}
}

func uniqueCombinations(rows []variantRow) error {
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		key := strings.ToLower(strings.Join(row.variant.Attributes.Values(), "\x00"))
		if first, ok := seen[key]; ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate attribute combination").
				WithDetails(map[string]any{"variants": []int{first, i}})
		}
		seen[key] = i
	}
	return nil
}

// checkSKUs rejects duplicates inside the payload and against the store.
// A concurrent insert that slips past is caught by the unique constraint.
func (s *service) checkSKUs(ctx context.Context, rows []variantRow) error {
	skus := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	var dupes []string
	for _, row := range rows {
		sku := row.variant.SKU
		if sku == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
		}
		if _, ok := seen[sku]; ok {
			dupes = append(dupes, sku)
			continue
		}
		seen[sku] = struct{}{}
		skus = append(skus, sku)
	}
	if len(dupes) > 0 {
		return pkgerrors.New(pkgerrors.CodeDuplicateSKU, "duplicate sku in request").
			WithDetails(map[string]any{"skus": dupes})
	}

	taken, err := s.repo.ExistingSKUs(ctx, skus)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "check skus")
	}
	if len(taken) > 0 {
		return pkgerrors.New(pkgerrors.CodeDuplicateSKU, "sku already exists").
			WithDetails(map[string]any{"skus": taken})
	}
	return nil
}

func (s *service) checkReferences(ctx context.Context, productTypeID uuid.UUID, rows []variantRow) error {
	ok, err := s.repo.ProductTypeExists(ctx, productTypeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load product type")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown product type").
			WithDetails(map[string]any{"product_type_id": productTypeID.String()})
	}

	var prices []models.VariantPrice
	for _, row := range rows {
		prices = append(prices, row.prices...)
	}
	return s.checkPriceLists(ctx, prices)
}

func (s *service) checkPriceLists(ctx context.Context, prices []models.VariantPrice) error {
	set := map[uuid.UUID]struct{}{}
	for _, price := range prices {
		set[price.PriceListID] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	count, err := s.repo.CountPriceLists(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load price lists")
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown price list")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "list products")
	}
	return NewProductDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load product")
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

// Deactivate soft deletes the product and its variants. Stock records and
// past sales are left untouched. Deactivating twice is a no-op.
func (s *service) Deactivate(ctx context.Context, capability auth.Capability, id uuid.UUID) error {
	if err := capability.RequireRole(enums.MemberRoleOwner); err != nil {
		return err
	}
	now := s.now()
	var touched []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		product, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}
		if !product.Active {
			return nil
		}
		touched, err = txRepo.Deactivate(ctx, id, now)
		if err != nil {
			return err
		}
		branchID := capability.BranchID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventProductDeactivated,
			AggregateType: enums.AggregateProduct,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: capability.UserID, BranchID: &branchID, Role: string(capability.Role)},
			Data: payloads.ProductDeactivatedEvent{
				ProductID:     id,
				VariantIDs:    touched,
				DeactivatedAt: now,
			},
			OccurredAt: now,
		})
	})
	if err != nil {
		return pkgerrors.PassThrough(err, "deactivate product")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"product_id": id.String(),
			"variants":   len(touched),
		}), "product deactivated")
	}
	return nil
}

func (s *service) UpdateVariantPrices(ctx context.Context, capability auth.Capability, variantID uuid.UUID, input PricesInput) (*VariantDTO, error) {
	if err := capability.RequireRole(enums.MemberRoleOwner); err != nil {
		return nil, err
	}
	if err := validateCost(input.Cost); err != nil {
		return nil, err
	}
	prices, err := buildPrices(variantID, input.Prices)
	if err != nil {
		return nil, err
	}
	if err := s.checkPriceLists(ctx, prices); err != nil {
		return nil, err
	}

	var updated *models.ProductVariant
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := txRepo.FindVariant(ctx, variantID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return err
		}
		if err := txRepo.ReplacePrices(ctx, variantID, prices, input.Cost, s.now()); err != nil {
			return err
		}
		updated, err = txRepo.FindVariant(ctx, variantID)
		return err
	})
	if err != nil {
		return nil, pkgerrors.PassThrough(err, "update variant prices")
	}
	dto := NewVariantDTO(*updated)
	return &dto, nil
}

// Preview runs the generator without persisting anything.
func (s *service) Preview(name string, definitions []types.AttributeDefinition) ([]variants.Draft, error) {
	if len(definitions) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one attribute definition is required")
	}
	return s.generator.Generate(definitions, name)
}

func buildPrices(variantID uuid.UUID, inputs []PriceInput) ([]models.VariantPrice, error) {
	out := make([]models.VariantPrice, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		if in.PriceListID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list is required")
		}
		if _, ok := seen[in.PriceListID]; ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at most one price per price list").
				WithDetails(map[string]any{"price_list_id": in.PriceListID.String()})
		}
		if in.Amount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative").
				WithDetails(map[string]any{"price_list_id": in.PriceListID.String()})
		}
		seen[in.PriceListID] = struct{}{}
		out = append(out, models.VariantPrice{
			ID:          uuid.New(),
			VariantID:   variantID,
			PriceListID: in.PriceListID,
			Amount:      in.Amount.Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceListID.String() < out[j].PriceListID.String() })
	return out, nil
}

func validateCost(cost *decimal.Decimal) error {
	if cost != nil && cost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	return nil
}

func withVariantIndex(err error, index int) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	details := map[string]any{"variant": index}
	if existing, ok := typed.Details().(map[string]any); ok {
		for k, v := range existing {
			details[k] = v
		}
	}
	return typed.WithDetails(details)
}
