package types

import (
	"encoding/json"
	"testing"
)

func TestNullableDecimalUnmarshal(t *testing.T) {
	type payload struct {
		Price NullableDecimal `json:"price"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"price": "12.50"}`), &got); err != nil {
		t.Fatalf("unmarshal string value: %v", err)
	}
	if !got.Price.Valid || got.Price.Value == nil || got.Price.Value.String() != "12.5" {
		t.Fatalf("expected 12.5, got %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"price": 99.9}`), &got); err != nil {
		t.Fatalf("unmarshal number value: %v", err)
	}
	if got.Price.Value == nil || got.Price.Value.String() != "99.9" {
		t.Fatalf("expected 99.9, got %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"price": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.Price.Valid || got.Price.Value != nil {
		t.Fatalf("expected null to be valid but nil, got %+v", got.Price)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.Price.Valid {
		t.Fatalf("expected invalid flag for missing field, got %+v", got.Price)
	}

	clone := NullableDecimal{Valid: true}.Clone()
	if !clone.Valid || clone.Value != nil {
		t.Fatalf("unexpected clone %+v", clone)
	}
}
