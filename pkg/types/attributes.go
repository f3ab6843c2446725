package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AttributePair is one chosen (name, value) of a variant.
type AttributePair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AttributePairs is an ordered attribute list stored as a JSON array so the
// definition order survives round trips through the store.
type AttributePairs []AttributePair

// Value implements driver.Valuer.
func (a AttributePairs) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]AttributePair(a))
	if err != nil {
		return nil, fmt.Errorf("attributes: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (a *AttributePairs) Scan(src any) error {
	if src == nil {
		*a = AttributePairs{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("attributes: unsupported Scan type %T", src)
	}

	if strings.TrimSpace(string(raw)) == "" {
		*a = AttributePairs{}
		return nil
	}

	var out []AttributePair
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("attributes: unmarshal: %w", err)
	}
	*a = AttributePairs(out)
	return nil
}

// Get returns the value for name, matched case-insensitively.
func (a AttributePairs) Get(name string) (string, bool) {
	for _, pair := range a {
		if strings.EqualFold(pair.Name, name) {
			return pair.Value, true
		}
	}
	return "", false
}

// Values returns the values in order.
func (a AttributePairs) Values() []string {
	out := make([]string, 0, len(a))
	for _, pair := range a {
		out = append(out, pair.Value)
	}
	return out
}

// Equal reports whether both lists hold the same pairs in the same order.
func (a AttributePairs) Equal(other AttributePairs) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i].Name, other[i].Name) || a[i].Value != other[i].Value {
			return false
		}
	}
	return true
}

// AttributeDefinition is one dimension of a product: a name and its ordered values.
type AttributeDefinition struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// AttributeDefinitions is the ordered schema of a product, stored as JSON.
type AttributeDefinitions []AttributeDefinition

// Value implements driver.Valuer.
func (d AttributeDefinitions) Value() (driver.Value, error) {
	if len(d) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]AttributeDefinition(d))
	if err != nil {
		return nil, fmt.Errorf("attribute definitions: marshal: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (d *AttributeDefinitions) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = AttributeDefinitions{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("attribute definitions: unsupported Scan type %T", src)
	}
	if strings.TrimSpace(string(raw)) == "" {
		*d = AttributeDefinitions{}
		return nil
	}
	var out []AttributeDefinition
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("attribute definitions: unmarshal: %w", err)
	}
	*d = AttributeDefinitions(out)
	return nil
}
