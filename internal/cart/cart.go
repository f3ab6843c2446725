// Package cart holds the per-session cart aggregate, its pricing and its Redis
// session store.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/internal/pricing"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// Line is one variant in the cart.
type Line struct {
	VariantID       uuid.UUID        `json:"variantId"`
	BranchID        uuid.UUID        `json:"branchId"`
	Quantity        int              `json:"quantity"`
	CustomUnitPrice *decimal.Decimal `json:"customUnitPrice,omitempty"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
}

// Cart is owned by a single session and written by one request at a time.
type Cart struct {
	SessionID   string            `json:"sessionId"`
	BranchID    uuid.UUID         `json:"branchId"`
	PriceListID uuid.UUID         `json:"priceListId"`
	PaymentType enums.PaymentType `json:"paymentType"`
	Lines       []Line            `json:"lines"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// New returns an empty cart priced by card until told otherwise.
func New(sessionID string, branchID uuid.UUID) *Cart {
	return &Cart{
		SessionID:   sessionID,
		BranchID:    branchID,
		PaymentType: enums.PaymentTypeCard,
		Lines:       []Line{},
	}
}

// AddLine merges into an existing line of the same variant and branch.
func (c *Cart) AddLine(line Line) error {
	if line.VariantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if line.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": line.Quantity})
	}
	if err := validateCustomPrice(line.CustomUnitPrice); err != nil {
		return err
	}
	if err := pricing.ValidateDiscountPercent(line.DiscountPercent); err != nil {
		return err
	}
	if line.BranchID == uuid.Nil {
		line.BranchID = c.BranchID
	}
	for i := range c.Lines {
		if c.Lines[i].VariantID == line.VariantID && c.Lines[i].BranchID == line.BranchID {
			c.Lines[i].Quantity += line.Quantity
			return nil
		}
	}
	c.Lines = append(c.Lines, line)
	return nil
}

// LineKey addresses one cart line. A zero BranchID means the cart's home branch.
type LineKey struct {
	VariantID uuid.UUID
	BranchID  uuid.UUID
}

// RemoveLine drops the line at key. It reports whether one existed.
func (c *Cart) RemoveLine(key LineKey) bool {
	key = c.resolve(key)
	for i := range c.Lines {
		if c.Lines[i].VariantID == key.VariantID && c.Lines[i].BranchID == key.BranchID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateQuantity sets the quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(key LineKey, qty int) error {
	if qty <= 0 {
		if !c.RemoveLine(key) {
			return lineNotFound(c.resolve(key))
		}
		return nil
	}
	line, err := c.line(key)
	if err != nil {
		return err
	}
	line.Quantity = qty
	return nil
}

// UpdateCustomPrice overrides the list price; nil clears the override.
func (c *Cart) UpdateCustomPrice(key LineKey, price *decimal.Decimal) error {
	if err := validateCustomPrice(price); err != nil {
		return err
	}
	line, err := c.line(key)
	if err != nil {
		return err
	}
	if price == nil {
		line.CustomUnitPrice = nil
		return nil
	}
	value := *price
	line.CustomUnitPrice = &value
	return nil
}

func (c *Cart) UpdateDiscount(key LineKey, percent decimal.Decimal) error {
	if err := pricing.ValidateDiscountPercent(percent); err != nil {
		return err
	}
	line, err := c.line(key)
	if err != nil {
		return err
	}
	line.DiscountPercent = percent
	return nil
}

func (c *Cart) SetPaymentType(paymentType enums.PaymentType) error {
	if !paymentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment type").
			WithDetails(map[string]any{"payment_type": string(paymentType)})
	}
	c.PaymentType = paymentType
	return nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) resolve(key LineKey) LineKey {
	if key.BranchID == uuid.Nil {
		key.BranchID = c.BranchID
	}
	return key
}

func (c *Cart) line(key LineKey) (*Line, error) {
	key = c.resolve(key)
	for i := range c.Lines {
		if c.Lines[i].VariantID == key.VariantID && c.Lines[i].BranchID == key.BranchID {
			return &c.Lines[i], nil
		}
	}
	return nil, lineNotFound(key)
}

func validateCustomPrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "custom unit price cannot be negative").
			WithDetails(map[string]any{"custom_unit_price": price.String()})
	}
	return nil
}

func lineNotFound(key LineKey) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
		WithDetails(map[string]any{"variant_id": key.VariantID.String(), "branch_id": key.BranchID.String()})
}
