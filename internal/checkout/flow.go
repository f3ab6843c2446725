package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

// Outcome is what a confirmed flow settled on.
type Outcome struct {
	Type             enums.SaleType
	Method           enums.PaymentMethod
	Total            decimal.Decimal
	AmountPaid       decimal.Decimal
	DepositAmount    *decimal.Decimal
	RemainingBalance decimal.Decimal
}

// Flow is the payment state machine of one checkout:
//
//	SelectingPaymentType -> FullPayment -> SelectingMethod -> Confirmed
//	SelectingPaymentType -> Deposit -> EnteringDepositAmount -> SelectingMethod -> Confirmed
//
// Cancel is allowed from any non-terminal state.
type Flow struct {
	state    enums.CheckoutState
	total    decimal.Decimal
	exchange bool
	deposit  *decimal.Decimal
	method   enums.PaymentMethod
}

// NewFlow starts a flow for the rounded cart total.
func NewFlow(total decimal.Decimal, exchange bool) *Flow {
	return &Flow{state: enums.CheckoutSelectingPaymentType, total: total, exchange: exchange}
}

func (f *Flow) State() enums.CheckoutState {
	return f.state
}

func (f *Flow) ChooseFullPayment() error {
	if err := f.expect("choose full payment", enums.CheckoutSelectingPaymentType); err != nil {
		return err
	}
	f.state = enums.CheckoutFullPayment
	return nil
}

func (f *Flow) ChooseDeposit() error {
	if err := f.expect("choose deposit", enums.CheckoutSelectingPaymentType); err != nil {
		return err
	}
	if f.exchange {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "exchanges are settled in full").
			WithDetails(map[string]any{"state": string(f.state)})
	}
	f.state = enums.CheckoutDeposit
	return nil
}

// EnterDeposit needs 0 < amount <= total. A rejected amount keeps the flow
// waiting for another one.
func (f *Flow) EnterDeposit(amount decimal.Decimal) error {
	if f.state == enums.CheckoutDeposit {
		f.state = enums.CheckoutEnteringDepositAmount
	}
	if err := f.expect("enter deposit", enums.CheckoutEnteringDepositAmount); err != nil {
		return err
	}
	if !amount.IsPositive() || amount.GreaterThan(f.total) {
		return pkgerrors.New(pkgerrors.CodeInvalidDeposit, "deposit must be greater than zero and at most the total").
			WithDetails(map[string]any{
				"deposit": amount.StringFixed(2),
				"total":   f.total.StringFixed(2),
			})
	}
	value := amount
	f.deposit = &value
	f.state = enums.CheckoutSelectingMethod
	return nil
}

func (f *Flow) SelectMethod(method enums.PaymentMethod) error {
	if f.state == enums.CheckoutFullPayment {
		f.state = enums.CheckoutSelectingMethod
	}
	if err := f.expect("select method", enums.CheckoutSelectingMethod); err != nil {
		return err
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"payment_method": string(method)})
	}
	f.method = method
	return nil
}

// Confirm closes the flow. Confirmed is terminal.
func (f *Flow) Confirm() (Outcome, error) {
	if err := f.expect("confirm", enums.CheckoutSelectingMethod); err != nil {
		return Outcome{}, err
	}
	if f.method == "" {
		return Outcome{}, pkgerrors.New(pkgerrors.CodeStateConflict, "payment method not selected")
	}
	f.state = enums.CheckoutConfirmed

	out := Outcome{
		Type:             enums.SaleTypeSale,
		Method:           f.method,
		Total:            f.total,
		AmountPaid:       f.total,
		RemainingBalance: decimal.Zero,
	}
	switch {
	case f.exchange:
		out.Type = enums.SaleTypeExchange
	case f.deposit != nil:
		deposit := *f.deposit
		out.Type = enums.SaleTypeDeposit
		out.AmountPaid = deposit
		out.DepositAmount = &deposit
		out.RemainingBalance = f.total.Sub(deposit)
	}
	return out, nil
}

// Cancel abandons the flow without side effects.
func (f *Flow) Cancel() error {
	if f.state.Terminal() {
		return f.conflict("cancel")
	}
	f.state = enums.CheckoutCancelled
	return nil
}

func (f *Flow) expect(action string, state enums.CheckoutState) error {
	if f.state != state {
		return f.conflict(action)
	}
	return nil
}

func (f *Flow) conflict(action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s", action)).
		WithDetails(map[string]any{"state": string(f.state)})
}
