// Package variants expands attribute definitions into concrete sellable
// variants and validates submitted attribute lists against a definition schema.
package variants

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// DefaultMaxVariants bounds a single generation run.
const DefaultMaxVariants = 500

const (
	nameSeparator = " - "
	skuSeparator  = "-"
	skuSegmentLen = 3
)

// Attributes is the ordered (name, value) list of one variant.
type Attributes []types.AttributePair

// Draft is a generated, not yet persisted, variant.
type Draft struct {
	Attributes  Attributes `json:"attributes"`
	DisplayName string     `json:"displayName"`
	SKU         string     `json:"sku"`
}

// Generator expands definitions with a configurable upper bound.
type Generator struct {
	MaxVariants int
}

// NewGenerator returns a generator capped at maxVariants (DefaultMaxVariants when <= 0).
func NewGenerator(maxVariants int) Generator {
	if maxVariants <= 0 {
		maxVariants = DefaultMaxVariants
	}
	return Generator{MaxVariants: maxVariants}
}

// Generate runs the default generator.
func Generate(definitions []types.AttributeDefinition, baseName string) ([]Draft, error) {
	return NewGenerator(DefaultMaxVariants).Generate(definitions, baseName)
}

// Generate returns the cartesian product of the definitions, depth first in
// definition order. The result is deterministic for a given input.
func (g Generator) Generate(definitions []types.AttributeDefinition, baseName string) ([]Draft, error) {
	if len(definitions) == 0 {
		return []Draft{}, nil
	}

	baseName = strings.TrimSpace(baseName)
	var errs error
	if baseName == "" {
		errs = multierr.Append(errs, fmt.Errorf("base name is required"))
	}
	errs = multierr.Append(errs, validateDefinitions(definitions))
	if errs != nil {
		return nil, validationError("invalid attribute definitions", errs)
	}

	limit := g.MaxVariants
	if limit <= 0 {
		limit = DefaultMaxVariants
	}
	if count := Count(definitions); count > limit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many variants").
			WithDetails(map[string]any{"count": count, "max": limit})
	}

	normalized := normalize(definitions)
	drafts := make([]Draft, 0, Count(definitions))
	current := make(Attributes, 0, len(normalized))

	var walk func(depth int)
	walk = func(depth int) {
		if depth == len(normalized) {
			attrs := make(Attributes, len(current))
			copy(attrs, current)
			drafts = append(drafts, newDraft(baseName, attrs))
			return
		}
		def := normalized[depth]
		for _, value := range def.Values {
			current = append(current, types.AttributePair{Name: def.Name, Value: value})
			walk(depth + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return drafts, nil
}

// Count is the number of variants Generate would produce. It saturates at
// math.MaxInt instead of overflowing.
func Count(definitions []types.AttributeDefinition) int {
	if len(definitions) == 0 {
		return 0
	}
	total := 1
	for _, def := range definitions {
		n := len(nonBlank(def.Values))
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

// DisplayName joins the base name and the attribute values.
func DisplayName(baseName string, attrs Attributes) string {
	parts := append([]string{strings.TrimSpace(baseName)}, types.AttributePairs(attrs).Values()...)
	return strings.Join(parts, nameSeparator)
}

// SKU upper-cases the first three runes of each value and joins them.
func SKU(attrs Attributes) string {
	segments := make([]string, 0, len(attrs))
	for _, pair := range attrs {
		runes := []rune(strings.TrimSpace(pair.Value))
		if len(runes) > skuSegmentLen {
			runes = runes[:skuSegmentLen]
		}
		segments = append(segments, strings.ToUpper(string(runes)))
	}
	return strings.Join(segments, skuSeparator)
}

func newDraft(baseName string, attrs Attributes) Draft {
	return Draft{
		Attributes:  attrs,
		DisplayName: DisplayName(baseName, attrs),
		SKU:         SKU(attrs),
	}
}

func normalize(definitions []types.AttributeDefinition) []types.AttributeDefinition {
	out := make([]types.AttributeDefinition, len(definitions))
	for i, def := range definitions {
		out[i] = types.AttributeDefinition{
			Name:   strings.TrimSpace(def.Name),
			Values: nonBlank(def.Values),
		}
	}
	return out
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeDefinitions trims names and drops blank values, keeping order.
func NormalizeDefinitions(definitions []types.AttributeDefinition) []types.AttributeDefinition {
	return normalize(definitions)
}
