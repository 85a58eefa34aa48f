package enums

import (
	"fmt"
	"slices"
)

func isOneOf[T ~string](value T, valid []T) bool {
	return slices.Contains(valid, value)
}

// parseOneOf matches raw exactly; callers trim and lowercase before parsing.
func parseOneOf[T ~string](raw string, valid []T, kind string) (T, error) {
	if value := T(raw); isOneOf(value, valid) {
		return value, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, raw)
}
