package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/pkg/db/models"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// SaleDTO is the public view of a ledger entry.
type SaleDTO struct {
	ID               uuid.UUID        `json:"id"`
	SaleNumber       string           `json:"saleNumber"`
	BranchID         uuid.UUID        `json:"branchId"`
	CashierID        uuid.UUID        `json:"cashierId"`
	Type             string           `json:"type"`
	PaymentType      string           `json:"paymentType"`
	PaymentMethod    string           `json:"paymentMethod"`
	PriceListID      uuid.UUID        `json:"priceListId"`
	Subtotal         decimal.Decimal  `json:"subtotal"`
	DiscountTotal    decimal.Decimal  `json:"discountTotal"`
	Total            decimal.Decimal  `json:"total"`
	AmountPaid       decimal.Decimal  `json:"amountPaid"`
	DepositAmount    *decimal.Decimal `json:"depositAmount,omitempty"`
	RemainingBalance decimal.Decimal  `json:"remainingBalance"`
	Notes            *string          `json:"notes,omitempty"`
	Lines            []SaleLineDTO    `json:"lines"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// SaleLineDTO is a line snapshot.
type SaleLineDTO struct {
	Position        int                  `json:"position"`
	VariantID       uuid.UUID            `json:"variantId"`
	SKU             string               `json:"sku"`
	Name            string               `json:"name"`
	Attributes      types.AttributePairs `json:"attributes"`
	Quantity        int                  `json:"quantity"`
	ListUnitPrice   decimal.Decimal      `json:"listUnitPrice"`
	DiscountPercent decimal.Decimal      `json:"discountPercent"`
	UnitPrice       decimal.Decimal      `json:"unitPrice"`
	LineSubtotal    decimal.Decimal      `json:"lineSubtotal"`
}

// SummaryDTO holds the dashboard totals.
type SummaryDTO struct {
	Today       decimal.Decimal `json:"today"`
	Month       decimal.Decimal `json:"month"`
	BranchMonth decimal.Decimal `json:"branchMonth"`
	AllBranches bool            `json:"allBranches"`
}

func NewSaleDTO(sale models.Sale) SaleDTO {
	dto := SaleDTO{
		ID:               sale.ID,
		SaleNumber:       sale.SaleNumber,
		BranchID:         sale.BranchID,
		CashierID:        sale.CashierID,
		Type:             string(sale.Type),
		PaymentType:      string(sale.PaymentType),
		PaymentMethod:    string(sale.PaymentMethod),
		PriceListID:      sale.PriceListID,
		Subtotal:         sale.Subtotal,
		DiscountTotal:    sale.DiscountTotal,
		Total:            sale.Total,
		AmountPaid:       sale.AmountPaid,
		DepositAmount:    sale.DepositAmount,
		RemainingBalance: sale.RemainingBalance,
		Notes:            sale.Notes,
		Lines:            make([]SaleLineDTO, 0, len(sale.Lines)),
		CreatedAt:        sale.CreatedAt,
	}
	for _, line := range sale.Lines {
		dto.Lines = append(dto.Lines, SaleLineDTO{
			Position:        line.Position,
			VariantID:       line.VariantID,
			SKU:             line.SKU,
			Name:            line.Name,
			Attributes:      line.Attributes,
			Quantity:        line.Quantity,
			ListUnitPrice:   line.ListUnitPrice,
			DiscountPercent: line.DiscountPercent,
			UnitPrice:       line.UnitPrice,
			LineSubtotal:    line.LineSubtotal,
		})
	}
	return dto
}
