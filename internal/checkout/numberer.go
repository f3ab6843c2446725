package checkout

import (
	"context"
	"fmt"
	"time"
)

// Numberer hands out human-readable sale numbers.
type Numberer interface {
	Next(ctx context.Context, at time.Time) (string, error)
}

type sequenceSource interface {
	NextDailySequence(ctx context.Context, name string, day time.Time) (int64, error)
}

// DailyNumberer formats a per-day redis counter as YYYYMMDD-000001. Numbers
// consumed by a checkout that later rolls back are not reused.
type DailyNumberer struct {
	seq  sequenceSource
	name string
}

func NewDailyNumberer(seq sequenceSource) (*DailyNumberer, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence source required")
	}
	return &DailyNumberer{seq: seq, name: "sale-number"}, nil
}

func (n *DailyNumberer) Next(ctx context.Context, at time.Time) (string, error) {
	day := at.UTC()
	value, err := n.seq.NextDailySequence(ctx, n.name, day)
	if err != nil {
		return "", err
	}
	return FormatSaleNumber(day, value), nil
}

// FormatSaleNumber renders the day and sequence value of a sale number.
func FormatSaleNumber(day time.Time, value int64) string {
	return fmt.Sprintf("%s-%06d", day.Format("20060102"), value)
}
