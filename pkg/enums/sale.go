package enums

import "fmt"

// SaleType classifies a ledger entry.
type SaleType string

const (
	SaleTypeSale     SaleType = "sale"
	SaleTypeExchange SaleType = "exchange"
	SaleTypeDeposit  SaleType = "deposit"
)

var validSaleTypes = []SaleType{
	SaleTypeSale,
	SaleTypeExchange,
	SaleTypeDeposit,
}

// String implements fmt.Stringer.
func (s SaleType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleType.
func (s SaleType) IsValid() bool {
	for _, candidate := range validSaleTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleType converts raw input into a SaleType.
func ParseSaleType(value string) (SaleType, error) {
	for _, candidate := range validSaleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale type %q", value)
}

// CheckoutState is a step of the payment flow.
type CheckoutState string

const (
	CheckoutSelectingPaymentType  CheckoutState = "selecting_payment_type"
	CheckoutFullPayment           CheckoutState = "full_payment"
	CheckoutDeposit               CheckoutState = "deposit"
	CheckoutEnteringDepositAmount CheckoutState = "entering_deposit_amount"
	CheckoutSelectingMethod       CheckoutState = "selecting_method"
	CheckoutConfirmed             CheckoutState = "confirmed"
	CheckoutCancelled             CheckoutState = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s CheckoutState) Terminal() bool {
	return s == CheckoutConfirmed || s == CheckoutCancelled
}
