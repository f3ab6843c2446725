package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/internal/pricing"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// ReplaceInput overwrites the whole cart.
type ReplaceInput struct {
	PriceListID uuid.UUID
	PaymentType enums.PaymentType
	Lines       []Line
}

// UpdateLineInput patches one line. Absent fields are left untouched.
type UpdateLineInput struct {
	Quantity        *int
	CustomUnitPrice types.NullableDecimal
	DiscountPercent *decimal.Decimal
}

// SettingsInput patches the cart-level settings.
type SettingsInput struct {
	PriceListID *uuid.UUID
	PaymentType *enums.PaymentType
}

// Service is the session cart surface. Every call carries the caller's capability.
type Service interface {
	Get(ctx context.Context, capability auth.Capability) (*Cart, error)
	Replace(ctx context.Context, capability auth.Capability, input ReplaceInput) (*Cart, error)
	UpdateSettings(ctx context.Context, capability auth.Capability, input SettingsInput) (*Cart, error)
	AddLine(ctx context.Context, capability auth.Capability, line Line) (*Cart, error)
	UpdateLine(ctx context.Context, capability auth.Capability, key LineKey, input UpdateLineInput) (*Cart, error)
	RemoveLine(ctx context.Context, capability auth.Capability, key LineKey) (*Cart, error)
	Discard(ctx context.Context, capability auth.Capability) error
	Totals(ctx context.Context, capability auth.Capability) (*Totals, error)
}

type service struct {
	store   Store
	catalog pricing.Catalog
	pricer  *Pricer
}

func NewService(store Store, catalog pricing.Catalog, pricer *Pricer) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("pricing catalog required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("cart pricer required")
	}
	return &service{store: store, catalog: catalog, pricer: pricer}, nil
}

func (s *service) Get(ctx context.Context, capability auth.Capability) (*Cart, error) {
	return s.load(ctx, capability)
}

func (s *service) Replace(ctx context.Context, capability auth.Capability, input ReplaceInput) (*Cart, error) {
	sessionID, err := sessionOf(capability)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveList(ctx, input.PriceListID); err != nil {
		return nil, err
	}
	c := New(sessionID, capability.BranchID)
	c.PriceListID = input.PriceListID
	if input.PaymentType != "" {
		if err := c.SetPaymentType(input.PaymentType); err != nil {
			return nil, err
		}
	}
	for _, line := range input.Lines {
		if err := s.admitLine(ctx, capability, c, line); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, c)
}

func (s *service) UpdateSettings(ctx context.Context, capability auth.Capability, input SettingsInput) (*Cart, error) {
	c, err := s.load(ctx, capability)
	if err != nil {
		return nil, err
	}
	if input.PriceListID != nil {
		if err := s.requireActiveList(ctx, *input.PriceListID); err != nil {
			return nil, err
		}
		c.PriceListID = *input.PriceListID
	}
	if input.PaymentType != nil {
		if err := c.SetPaymentType(*input.PaymentType); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, c)
}

func (s *service) AddLine(ctx context.Context, capability auth.Capability, line Line) (*Cart, error) {
	c, err := s.load(ctx, capability)
	if err != nil {
		return nil, err
	}
	if err := s.admitLine(ctx, capability, c, line); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *service) UpdateLine(ctx context.Context, capability auth.Capability, key LineKey, input UpdateLineInput) (*Cart, error) {
	c, err := s.load(ctx, capability)
	if err != nil {
		return nil, err
	}
	if input.CustomUnitPrice.Valid {
		if err := c.UpdateCustomPrice(key, input.CustomUnitPrice.Value); err != nil {
			return nil, err
		}
	}
	if input.DiscountPercent != nil {
		if err := c.UpdateDiscount(key, *input.DiscountPercent); err != nil {
			return nil, err
		}
	}
	if input.Quantity != nil {
		if err := c.UpdateQuantity(key, *input.Quantity); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, c)
}

func (s *service) RemoveLine(ctx context.Context, capability auth.Capability, key LineKey) (*Cart, error) {
	c, err := s.load(ctx, capability)
	if err != nil {
		return nil, err
	}
	if !c.RemoveLine(key) {
		return nil, lineNotFound(c.resolve(key))
	}
	return s.save(ctx, c)
}

// Discard drops the session cart without side effects.
func (s *service) Discard(ctx context.Context, capability auth.Capability) error {
	sessionID, err := sessionOf(capability)
	if err != nil {
		return err
	}
	if err := s.store.Discard(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "discard cart")
	}
	return nil
}

func (s *service) Totals(ctx context.Context, capability auth.Capability) (*Totals, error) {
	c, err := s.load(ctx, capability)
	if err != nil {
		return nil, err
	}
	return s.pricer.Total(ctx, c)
}

func (s *service) admitLine(ctx context.Context, capability auth.Capability, c *Cart, line Line) error {
	if line.BranchID == uuid.Nil {
		line.BranchID = capability.BranchID
	}
	if err := capability.RequireBranch(line.BranchID); err != nil {
		return err
	}
	if _, err := s.catalog.Variant(ctx, line.VariantID); err != nil {
		return err
	}
	return c.AddLine(line)
}

// requireActiveList rejects a missing or inactive price list. uuid.Nil leaves the cart unpriced.
func (s *service) requireActiveList(ctx context.Context, priceListID uuid.UUID) error {
	if priceListID == uuid.Nil {
		return nil
	}
	list, err := s.catalog.PriceList(ctx, priceListID)
	if err != nil {
		return err
	}
	if !list.Active {
		return pkgerrors.New(pkgerrors.CodeValidation, "price list is inactive").
			WithDetails(map[string]any{"price_list_id": priceListID.String()})
	}
	return nil
}

func (s *service) load(ctx context.Context, capability auth.Capability) (*Cart, error) {
	sessionID, err := sessionOf(capability)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load cart")
	}
	if c == nil {
		return New(sessionID, capability.BranchID), nil
	}
	return c, nil
}

func (s *service) save(ctx context.Context, c *Cart) (*Cart, error) {
	if err := s.store.Save(ctx, c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "save cart")
	}
	return c, nil
}

func sessionOf(capability auth.Capability) (string, error) {
	if capability.UserID == uuid.Nil || strings.TrimSpace(capability.SessionID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return capability.SessionID, nil
}
