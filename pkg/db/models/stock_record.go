package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockRecord is the on-hand quantity of a variant at a branch.
type StockRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID   uuid.UUID `gorm:"column:variant_id;type:uuid;not null"`
	BranchID    uuid.UUID `gorm:"column:branch_id;type:uuid;not null"`
	Quantity    int       `gorm:"column:quantity;not null;default:0"`
	MinQuantity *int      `gorm:"column:min_quantity"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StockRecord) TableName() string { return "stock_records" }

func (s *StockRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
