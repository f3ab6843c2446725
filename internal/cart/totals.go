package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/internal/pricing"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// PricedLine is a cart line with its resolved prices at full precision.
type PricedLine struct {
	Line
	Variant  models.ProductVariant `json:"-"`
	SKU      string                `json:"sku"`
	Name     string                `json:"name"`
	Base     decimal.Decimal       `json:"baseUnitPrice"`
	Listed   decimal.Decimal       `json:"listUnitPrice"`
	Unit     decimal.Decimal       `json:"unitPrice"`
	Subtotal decimal.Decimal       `json:"lineSubtotal"`
}

// Totals is the priced cart. Subtotal is before line discounts, Total after.
type Totals struct {
	Lines         []PricedLine    `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	Total         decimal.Decimal `json:"total"`
}

// Pricer resolves every line of a cart against the catalog.
type Pricer struct {
	catalog  pricing.Catalog
	resolver *pricing.Resolver
}

func NewPricer(catalog pricing.Catalog, resolver *pricing.Resolver) (*Pricer, error) {
	if catalog == nil {
		return nil, fmt.Errorf("pricing catalog required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	return &Pricer{catalog: catalog, resolver: resolver}, nil
}

// Total prices the cart with the cart-level price list and payment type.
func (p *Pricer) Total(ctx context.Context, c *Cart) (*Totals, error) {
	if c.PriceListID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price list is required")
	}
	totals := &Totals{
		Lines:         make([]PricedLine, 0, len(c.Lines)),
		Subtotal:      decimal.Zero,
		DiscountTotal: decimal.Zero,
		Total:         decimal.Zero,
	}
	eligible := map[string]bool{}
	for _, line := range c.Lines {
		variant, err := p.catalog.Variant(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		key := variant.ProductID.String()
		isEligible, seen := eligible[key]
		if !seen {
			rule, err := p.catalog.ProductTypeRule(ctx, line.VariantID)
			if err != nil {
				return nil, err
			}
			isEligible = rule.CashDiscountEligible
			eligible[key] = isEligible
		}

		b, err := p.resolver.Breakdown(ctx, pricing.CartInput{
			Variant:             *variant,
			PriceListID:         c.PriceListID,
			PaymentType:         c.PaymentType,
			ProductTypeEligible: isEligible,
			ManualOverride:      line.CustomUnitPrice,
			LineDiscountPercent: line.DiscountPercent,
		})
		if err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		priced := PricedLine{
			Line:     line,
			Variant:  *variant,
			SKU:      variant.SKU,
			Name:     variant.DisplayName,
			Base:     b.Base,
			Listed:   b.Listed,
			Unit:     b.Unit,
			Subtotal: b.Unit.Mul(qty),
		}
		totals.Lines = append(totals.Lines, priced)
		totals.Subtotal = totals.Subtotal.Add(b.Listed.Mul(qty))
		totals.Total = totals.Total.Add(priced.Subtotal)
	}
	totals.DiscountTotal = totals.Subtotal.Sub(totals.Total)
	return totals, nil
}
