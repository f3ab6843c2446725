package variants

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/types"
)

// ValidateDefinitions reports every problem of the definition list at once.
func ValidateDefinitions(definitions []types.AttributeDefinition) error {
	if err := validateDefinitions(definitions); err != nil {
		return validationError("invalid attribute definitions", err)
	}
	return nil
}

func validateDefinitions(definitions []types.AttributeDefinition) error {
	var errs error
	seen := make(map[string]int, len(definitions))
	for i, def := range definitions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("definition %d: name is required", i))
			continue
		}
		key := strings.ToLower(name)
		if first, dup := seen[key]; dup {
			errs = multierr.Append(errs, fmt.Errorf("definition %d: name %q duplicates definition %d", i, name, first))
		} else {
			seen[key] = i
		}

		values := nonBlank(def.Values)
		if len(values) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("definition %q: at least one non-blank value is required", name))
			continue
		}
		unique := make(map[string]struct{}, len(values))
		for _, value := range values {
			vk := strings.ToLower(value)
			if _, dup := unique[vk]; dup {
				errs = multierr.Append(errs, fmt.Errorf("definition %q: duplicate value %q", name, value))
				continue
			}
			unique[vk] = struct{}{}
		}
	}
	return errs
}

// Validate checks the list holds exactly one pair per definition, in
// definition order, with a value the definition allows.
func (a Attributes) Validate(definitions []types.AttributeDefinition) error {
	var errs error
	if len(a) != len(definitions) {
		errs = multierr.Append(errs, fmt.Errorf("expected %d attributes, got %d", len(definitions), len(a)))
	}
	for i := 0; i < len(a) && i < len(definitions); i++ {
		pair := a[i]
		def := definitions[i]
		defName := strings.TrimSpace(def.Name)
		if !strings.EqualFold(strings.TrimSpace(pair.Name), defName) {
			errs = multierr.Append(errs, fmt.Errorf("attribute %d: expected %q, got %q", i, defName, pair.Name))
			continue
		}
		if !allows(def, pair.Value) {
			errs = multierr.Append(errs, fmt.Errorf("attribute %q: value %q is not allowed", defName, pair.Value))
		}
	}
	if errs != nil {
		return validationError("invalid variant attributes", errs)
	}
	return nil
}

// Normalized trims names and values, taking names from the definitions.
func (a Attributes) Normalized(definitions []types.AttributeDefinition) Attributes {
	out := make(Attributes, len(a))
	for i, pair := range a {
		name := strings.TrimSpace(pair.Name)
		if i < len(definitions) {
			name = strings.TrimSpace(definitions[i].Name)
		}
		out[i] = types.AttributePair{Name: name, Value: strings.TrimSpace(pair.Value)}
	}
	return out
}

func allows(def types.AttributeDefinition, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, candidate := range nonBlank(def.Values) {
		if candidate == value {
			return true
		}
	}
	return false
}

func validationError(message string, err error) error {
	problems := multierr.Errors(err)
	details := make([]string, 0, len(problems))
	for _, problem := range problems {
		details = append(details, problem.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message).
		WithDetails(map[string]any{"problems": details})
}
