package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceList is read-only to the engine; it is maintained by the back office.
type PriceList struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	AdjustmentPercent decimal.Decimal `gorm:"column:adjustment_percent;type:numeric(6,2);not null;default:0"`
	BasePriceListID   *uuid.UUID      `gorm:"column:base_price_list_id;type:uuid"`
	Active            bool            `gorm:"column:active;not null;default:true"`
}

func (PriceList) TableName() string { return "price_lists" }

func (p *PriceList) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductType carries the cash discount eligibility rule.
type ProductType struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string    `gorm:"column:name;not null"`
	CashDiscountEligible bool      `gorm:"column:cash_discount_eligible;not null;default:false"`
}

func (ProductType) TableName() string { return "product_types" }

func (p *ProductType) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
