package types

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// NullableDecimal tracks whether an amount field was explicitly present in JSON.
// Valid with a nil Value means the client sent null.
type NullableDecimal struct {
	Valid bool
	Value *decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed decimal.Decimal
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// Clone returns a copy of the NullableDecimal.
func (n NullableDecimal) Clone() NullableDecimal {
	if n.Value == nil {
		return NullableDecimal{Valid: n.Valid}
	}
	value := *n.Value
	return NullableDecimal{Valid: n.Valid, Value: &value}
}
