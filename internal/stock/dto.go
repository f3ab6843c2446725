package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/pkg/db/models"
)

// RecordDTO is the public view of a stock record.
type RecordDTO struct {
	VariantID   uuid.UUID `json:"variantId"`
	BranchID    uuid.UUID `json:"branchId"`
	Quantity    int       `json:"quantity"`
	MinQuantity *int      `json:"minQuantity,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewRecordDTO(record models.StockRecord) RecordDTO {
	return RecordDTO{
		VariantID:   record.VariantID,
		BranchID:    record.BranchID,
		Quantity:    record.Quantity,
		MinQuantity: record.MinQuantity,
		UpdatedAt:   record.UpdatedAt,
	}
}

func NewRecordDTOs(records []models.StockRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		out = append(out, NewRecordDTO(record))
	}
	return out
}
