// Package enums holds the closed vocabularies stored in the database. Values
// are the Portuguese labels persisted by the legacy system.
package enums

import (
	"fmt"
	"slices"
)

type label interface{ ~string }

func parse[T label](kind, value string, known []T) (T, error) {
	if v := T(value); slices.Contains(known, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}
