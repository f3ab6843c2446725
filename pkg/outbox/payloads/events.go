package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
)

// SaleLineRef is the per-line summary carried on sale events.
type SaleLineRef struct {
	VariantID uuid.UUID       `json:"variant_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SaleCreatedEvent is emitted once a checkout commits.
type SaleCreatedEvent struct {
	SaleID           uuid.UUID           `json:"sale_id"`
	SaleNumber       string              `json:"sale_number"`
	BranchID         uuid.UUID           `json:"branch_id"`
	CashierID        uuid.UUID           `json:"cashier_id"`
	Type             enums.SaleType      `json:"type"`
	PaymentType      enums.PaymentType   `json:"payment_type"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	Total            decimal.Decimal     `json:"total"`
	AmountPaid       decimal.Decimal     `json:"amount_paid"`
	RemainingBalance decimal.Decimal     `json:"remaining_balance"`
	Lines            []SaleLineRef       `json:"lines"`
}

// StockAdjustedEvent records a manual stock correction.
type StockAdjustedEvent struct {
	StockRecordID    uuid.UUID `json:"stock_record_id"`
	VariantID        uuid.UUID `json:"variant_id"`
	BranchID         uuid.UUID `json:"branch_id"`
	PreviousQuantity int       `json:"previous_quantity"`
	Quantity         int       `json:"quantity"`
	MinQuantity      *int      `json:"min_quantity,omitempty"`
}

// StockLowEvent is raised when a record drops to or below its minimum.
type StockLowEvent struct {
	StockRecordID uuid.UUID `json:"stock_record_id"`
	VariantID     uuid.UUID `json:"variant_id"`
	BranchID      uuid.UUID `json:"branch_id"`
	Quantity      int       `json:"quantity"`
	MinQuantity   int       `json:"min_quantity"`
	DetectedAt    time.Time `json:"detected_at"`
}

// ProductDeactivatedEvent lists the variants hidden with the product.
type ProductDeactivatedEvent struct {
	ProductID     uuid.UUID   `json:"product_id"`
	VariantIDs    []uuid.UUID `json:"variant_ids"`
	DeactivatedAt time.Time   `json:"deactivated_at"`
}
