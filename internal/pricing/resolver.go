// Package pricing resolves unit prices for variants: list lookup, the cash
// discount for eligible product types and the manual line discount, in that order.
package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

const saleScale = 2

var hundred = decimal.NewFromInt(100)

// DefaultCashDiscountRate is the fraction taken off eligible items paid in cash.
var DefaultCashDiscountRate = decimal.RequireFromString("0.20")

// PriceListLookup loads price list metadata for the derived-list fallback.
type PriceListLookup interface {
	PriceList(ctx context.Context, id uuid.UUID) (*models.PriceList, error)
}

// CartInput is everything needed to price one cart line.
type CartInput struct {
	Variant             models.ProductVariant
	PriceListID         uuid.UUID
	PaymentType         enums.PaymentType
	ProductTypeEligible bool
	ManualOverride      *decimal.Decimal
	LineDiscountPercent decimal.Decimal
}

// Breakdown keeps each pricing step at full precision.
type Breakdown struct {
	Base   decimal.Decimal
	Listed decimal.Decimal
	Unit   decimal.Decimal
}

// Resolver applies the pricing steps. lists may be nil, which disables the
// derived price list fallback.
type Resolver struct {
	cashRate decimal.Decimal
	lists    PriceListLookup
}

// NewResolver builds a resolver taking cashDiscountPercent (0-100) off eligible cash lines.
func NewResolver(cashDiscountPercent float64, lists PriceListLookup) (*Resolver, error) {
	rate := decimal.NewFromFloat(cashDiscountPercent)
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash discount percent must be between 0 and 100")
	}
	return &Resolver{cashRate: rate.Div(hundred), lists: lists}, nil
}

// CashRate returns the configured cash discount as a fraction.
func (r *Resolver) CashRate() decimal.Decimal {
	return r.cashRate
}

// Resolve returns the stored amount of variant on priceListID.
func Resolve(variant models.ProductVariant, priceListID uuid.UUID) (decimal.Decimal, error) {
	for _, price := range variant.Prices {
		if price.PriceListID == priceListID {
			return price.Amount, nil
		}
	}
	return decimal.Zero, priceNotFound(variant.ID, priceListID)
}

// ListPrice resolves the stored amount, falling back to the list's base list
// adjusted by its percent when the list declares one.
func (r *Resolver) ListPrice(ctx context.Context, variant models.ProductVariant, priceListID uuid.UUID) (decimal.Decimal, error) {
	amount, err := Resolve(variant, priceListID)
	if err == nil || r.lists == nil {
		return amount, err
	}
	list, lerr := r.lists.PriceList(ctx, priceListID)
	if lerr != nil {
		if pkgerrors.IsCode(lerr, pkgerrors.CodeNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, pkgerrors.PassThrough(lerr, "load price list")
	}
	if list == nil || list.BasePriceListID == nil {
		return decimal.Zero, err
	}
	base, berr := Resolve(variant, *list.BasePriceListID)
	if berr != nil {
		return decimal.Zero, err
	}
	return ApplyListAdjustment(base, *list), nil
}

// ResolveForCart returns the unit price at full precision.
func (r *Resolver) ResolveForCart(ctx context.Context, in CartInput) (decimal.Decimal, error) {
	b, err := r.Breakdown(ctx, in)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Unit, nil
}

// Breakdown runs base, cash discount, then line discount.
func (r *Resolver) Breakdown(ctx context.Context, in CartInput) (Breakdown, error) {
	if err := ValidateDiscountPercent(in.LineDiscountPercent); err != nil {
		return Breakdown{}, err
	}

	var base decimal.Decimal
	if in.ManualOverride != nil {
		if in.ManualOverride.IsNegative() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "custom unit price cannot be negative")
		}
		base = *in.ManualOverride
	} else {
		amount, err := r.ListPrice(ctx, in.Variant, in.PriceListID)
		if err != nil {
			return Breakdown{}, err
		}
		base = amount
	}

	listed := base
	if in.PaymentType == enums.PaymentTypeCash && in.ProductTypeEligible {
		listed = base.Mul(decimal.NewFromInt(1).Sub(r.cashRate))
	}
	unit := listed.Mul(decimal.NewFromInt(1).Sub(in.LineDiscountPercent.Div(hundred)))

	return Breakdown{Base: base, Listed: listed, Unit: unit}, nil
}

// RoundForSale rounds half-up to cents for the sale snapshot.
func RoundForSale(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(saleScale)
}

// ApplyListAdjustment applies the list's signed percent: positive discounts,
// negative surcharges.
func ApplyListAdjustment(amount decimal.Decimal, list models.PriceList) decimal.Decimal {
	if list.AdjustmentPercent.IsZero() {
		return amount
	}
	return amount.Mul(decimal.NewFromInt(1).Sub(list.AdjustmentPercent.Div(hundred)))
}

// ValidateDiscountPercent accepts 0 to 100 inclusive.
func ValidateDiscountPercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100").
			WithDetails(map[string]any{"discount_percent": percent.String()})
	}
	return nil
}

func priceNotFound(variantID, priceListID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodePriceNotFound, "variant has no price on list").
		WithDetails(map[string]any{
			"variant_id":    variantID.String(),
			"price_list_id": priceListID.String(),
		})
}
