package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// Product is a catalog entry owning its variants.
type Product struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string                     `gorm:"column:name;not null"`
	SupplierID           *uuid.UUID                 `gorm:"column:supplier_id;type:uuid"`
	ProductTypeID        uuid.UUID                  `gorm:"column:product_type_id;type:uuid;not null"`
	AttributeDefinitions types.AttributeDefinitions `gorm:"column:attribute_definitions;type:jsonb;not null"`
	Active               bool                       `gorm:"column:active;not null;default:true"`
	Variants             []ProductVariant           `gorm:"foreignKey:ProductID"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is one sellable attribute combination.
type ProductVariant struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	Attributes  types.AttributePairs `gorm:"column:attributes;type:jsonb;not null"`
	DisplayName string               `gorm:"column:display_name;not null"`
	SKU         string               `gorm:"column:sku;not null;uniqueIndex"`
	Cost        *decimal.Decimal     `gorm:"column:cost;type:numeric(12,2)"`
	Active      bool                 `gorm:"column:active;not null;default:true"`
	Prices      []VariantPrice       `gorm:"foreignKey:VariantID"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// VariantPrice is the stored amount of a variant on one price list.
type VariantPrice struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	PriceListID uuid.UUID       `gorm:"column:price_list_id;type:uuid;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (VariantPrice) TableName() string { return "variant_prices" }

func (p *VariantPrice) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
