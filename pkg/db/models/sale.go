package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// Sale is an append-only ledger entry written at checkout.
type Sale struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleNumber       string              `gorm:"column:sale_number;not null;uniqueIndex"`
	BranchID         uuid.UUID           `gorm:"column:branch_id;type:uuid;not null"`
	CashierID        uuid.UUID           `gorm:"column:cashier_id;type:uuid;not null"`
	Type             enums.SaleType      `gorm:"column:type;not null"`
	PaymentType      enums.PaymentType   `gorm:"column:payment_type;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PriceListID      uuid.UUID           `gorm:"column:price_list_id;type:uuid;not null"`
	Subtotal         decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DiscountTotal    decimal.Decimal     `gorm:"column:discount_total;type:numeric(12,2);not null"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	AmountPaid       decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	DepositAmount    *decimal.Decimal    `gorm:"column:deposit_amount;type:numeric(12,2)"`
	RemainingBalance decimal.Decimal     `gorm:"column:remaining_balance;type:numeric(12,2);not null"`
	Notes            *string             `gorm:"column:notes"`
	Lines            []SaleLine          `gorm:"foreignKey:SaleID"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (Sale) TableName() string { return "sales" }

func (s *Sale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// SaleLine is a self-contained snapshot; it survives variant deactivation.
type SaleLine struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID          uuid.UUID            `gorm:"column:sale_id;type:uuid;not null"`
	Position        int                  `gorm:"column:position;not null"`
	VariantID       uuid.UUID            `gorm:"column:variant_id;type:uuid;not null"`
	SKU             string               `gorm:"column:sku;not null"`
	Name            string               `gorm:"column:name;not null"`
	Attributes      types.AttributePairs `gorm:"column:attributes;type:jsonb;not null"`
	Quantity        int                  `gorm:"column:quantity;not null"`
	ListUnitPrice   decimal.Decimal      `gorm:"column:list_unit_price;type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	UnitPrice       decimal.Decimal      `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineSubtotal    decimal.Decimal      `gorm:"column:line_subtotal;type:numeric(12,2);not null"`
}

func (SaleLine) TableName() string { return "sale_lines" }

func (l *SaleLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
