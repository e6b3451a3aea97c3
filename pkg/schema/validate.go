package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"prefix": String(), "times": Int(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema. Every field is required.
// Returns an *AggregateError with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	return validate(schema, data, true)
}

// ValidatePresent checks only the schema fields that are present in data.
// Positional parameters use it, since callers may pass fewer arguments than declared.
func ValidatePresent(schema Schema, data map[string]any) error {
	return validate(schema, data, false)
}

func validate(schema Schema, data map[string]any, required bool) error {
	if len(schema) == 0 {
		return nil
	}

	// Sorted keys keep error output stable.
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := &AggregateError{}
	for _, key := range keys {
		value, exists := data[key]
		if !exists {
			if required {
				errs.Append(&ValidationError{Key: key, Reason: "required"})
			}
			continue
		}

		if err := schema[key].Validate(value); err != nil {
			errs.Append(&ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}
	return errs.ErrOrNil()
}
