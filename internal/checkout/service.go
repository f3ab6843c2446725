// Package checkout turns a priced cart into a sale: it drives the payment
// flow, then decrements stock, appends the sale and queues its event inside
// one transaction.
package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/internal/cart"
	"github.com/angelmondragon/posengine-backend/internal/pricing"
	"github.com/angelmondragon/posengine-backend/internal/sales"
	"github.com/angelmondragon/posengine-backend/internal/stock"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/db"
	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
	"github.com/angelmondragon/posengine-backend/pkg/metrics"
	"github.com/angelmondragon/posengine-backend/pkg/outbox"
	"github.com/angelmondragon/posengine-backend/pkg/outbox/payloads"
)

// Request is the cashier's choice at the payment screen.
type Request struct {
	Exchange      bool
	DepositAmount *decimal.Decimal
	PaymentMethod enums.PaymentMethod
	Notes         string
}

// Result summarises the committed sale.
type Result struct {
	SaleID           uuid.UUID       `json:"saleId"`
	SaleNumber       string          `json:"saleNumber"`
	Type             enums.SaleType  `json:"type"`
	Total            decimal.Decimal `json:"total"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Service confirms checkouts.
type Service interface {
	Checkout(ctx context.Context, capability auth.Capability, req Request) (*Result, error)
}

type service struct {
	carts   cart.Store
	pricer  *cart.Pricer
	stock   stock.Service
	sales   sales.Service
	outbox  outbox.Emitter
	tx      db.TxRunner
	numbers Numberer
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// Deps groups the collaborators of the checkout service.
type Deps struct {
	Carts    cart.Store
	Pricer   *cart.Pricer
	Stock    stock.Service
	Sales    sales.Service
	Outbox   outbox.Emitter
	Tx       db.TxRunner
	Numberer Numberer
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart store required")
	case deps.Pricer == nil:
		return nil, fmt.Errorf("cart pricer required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock service required")
	case deps.Sales == nil:
		return nil, fmt.Errorf("sales service required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Numberer == nil:
		return nil, fmt.Errorf("sale numberer required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		carts:   deps.Carts,
		pricer:  deps.Pricer,
		stock:   deps.Stock,
		sales:   deps.Sales,
		outbox:  deps.Outbox,
		tx:      deps.Tx,
		numbers: deps.Numberer,
		metrics: deps.Metrics,
		logg:    deps.Logger,
		now:     clock,
	}, nil
}

func (s *service) Checkout(ctx context.Context, capability auth.Capability, req Request) (*Result, error) {
	started := s.now()
	res, err := s.checkout(ctx, capability, req)
	s.metrics.ObserveDuration(s.now().Sub(started))
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.metrics.IncRejected(code)
		return nil, err
	}
	s.metrics.IncConfirmed(string(res.Type), string(req.PaymentMethod))
	return res, nil
}

func (s *service) checkout(ctx context.Context, capability auth.Capability, req Request) (*Result, error) {
	if capability.UserID == uuid.Nil || capability.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}

	c, err := s.carts.Load(ctx, capability.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load cart")
	}
	if c == nil || c.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := capability.RequireBranch(c.BranchID); err != nil {
		return nil, err
	}

	totals, err := s.pricer.Total(ctx, c)
	if err != nil {
		return nil, err
	}
	lines, subtotal, total := saleLines(totals)

	outcome, err := runFlow(total, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "allocate sale number")
	}

	sale := &models.Sale{
		SaleNumber:       number,
		BranchID:         c.BranchID,
		CashierID:        capability.UserID,
		Type:             outcome.Type,
		PaymentType:      c.PaymentType,
		PaymentMethod:    outcome.Method,
		PriceListID:      c.PriceListID,
		Subtotal:         subtotal,
		DiscountTotal:    subtotal.Sub(total),
		Total:            total,
		AmountPaid:       outcome.AmountPaid,
		DepositAmount:    outcome.DepositAmount,
		RemainingBalance: outcome.RemainingBalance,
		Lines:            lines,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		sale.Notes = &notes
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, group := range byBranch(c, totals) {
			if err := s.stock.DecrementForSale(ctx, tx, capability, group.branchID, group.lines); err != nil {
				return err
			}
		}
		if err := s.sales.Append(ctx, tx, sale); err != nil {
			return err
		}
		return s.emitSaleCreated(ctx, tx, capability, sale)
	})
	if err != nil {
		return nil, pkgerrors.PassThrough(err, "confirm checkout")
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"sale_id":     sale.ID.String(),
			"sale_number": sale.SaleNumber,
			"branch_id":   sale.BranchID.String(),
			"type":        string(sale.Type),
			"total":       sale.Total.StringFixed(2),
		})
	}
	if err := s.carts.Discard(ctx, capability.SessionID); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "discard cart after checkout failed")
	}
	if s.logg != nil {
		s.logg.Info(logCtx, "checkout confirmed")
	}

	return &Result{
		SaleID:           sale.ID,
		SaleNumber:       sale.SaleNumber,
		Type:             sale.Type,
		Total:            sale.Total,
		AmountPaid:       sale.AmountPaid,
		RemainingBalance: sale.RemainingBalance,
	}, nil
}

func (s *service) emitSaleCreated(ctx context.Context, tx *gorm.DB, capability auth.Capability, sale *models.Sale) error {
	refs := make([]payloads.SaleLineRef, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		refs = append(refs, payloads.SaleLineRef{
			VariantID: line.VariantID,
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	branchID := capability.BranchID
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID,
		Actor:         &outbox.ActorRef{UserID: capability.UserID, BranchID: &branchID, Role: string(capability.Role)},
		Data: payloads.SaleCreatedEvent{
			SaleID:           sale.ID,
			SaleNumber:       sale.SaleNumber,
			BranchID:         sale.BranchID,
			CashierID:        sale.CashierID,
			Type:             sale.Type,
			PaymentType:      sale.PaymentType,
			PaymentMethod:    sale.PaymentMethod,
			Total:            sale.Total,
			AmountPaid:       sale.AmountPaid,
			RemainingBalance: sale.RemainingBalance,
			Lines:            refs,
		},
	})
}

// runFlow walks the state machine for a single request.
func runFlow(total decimal.Decimal, req Request) (Outcome, error) {
	flow := NewFlow(total, req.Exchange)
	if req.DepositAmount != nil {
		if err := flow.ChooseDeposit(); err != nil {
			return Outcome{}, err
		}
		if err := flow.EnterDeposit(*req.DepositAmount); err != nil {
			return Outcome{}, err
		}
	} else if err := flow.ChooseFullPayment(); err != nil {
		return Outcome{}, err
	}
	if err := flow.SelectMethod(req.PaymentMethod); err != nil {
		return Outcome{}, err
	}
	return flow.Confirm()
}

// saleLines snapshots the priced cart. Prices are rounded per unit before
// being multiplied so the stored line subtotals add up to the total.
func saleLines(totals *cart.Totals) ([]models.SaleLine, decimal.Decimal, decimal.Decimal) {
	lines := make([]models.SaleLine, 0, len(totals.Lines))
	subtotal := decimal.Zero
	total := decimal.Zero
	for _, priced := range totals.Lines {
		qty := decimal.NewFromInt(int64(priced.Quantity))
		listUnit := pricing.RoundForSale(priced.Listed)
		unit := pricing.RoundForSale(priced.Unit)
		lineSubtotal := unit.Mul(qty)

		lines = append(lines, models.SaleLine{
			VariantID:       priced.VariantID,
			SKU:             priced.SKU,
			Name:            priced.Name,
			Attributes:      priced.Variant.Attributes,
			Quantity:        priced.Quantity,
			ListUnitPrice:   listUnit,
			DiscountPercent: priced.DiscountPercent,
			UnitPrice:       unit,
			LineSubtotal:    lineSubtotal,
		})
		subtotal = subtotal.Add(listUnit.Mul(qty))
		total = total.Add(lineSubtotal)
	}
	return lines, subtotal, total
}

type branchLines struct {
	branchID uuid.UUID
	lines    []stock.Line
}

func byBranch(c *cart.Cart, totals *cart.Totals) []branchLines {
	groups := map[uuid.UUID][]stock.Line{}
	for _, priced := range totals.Lines {
		branchID := priced.BranchID
		if branchID == uuid.Nil {
			branchID = c.BranchID
		}
		groups[branchID] = append(groups[branchID], stock.Line{VariantID: priced.VariantID, Quantity: priced.Quantity})
	}
	out := make([]branchLines, 0, len(groups))
	for branchID, lines := range groups {
		out = append(out, branchLines{branchID: branchID, lines: lines})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].branchID.String() < out[j].branchID.String() })
	return out
}
