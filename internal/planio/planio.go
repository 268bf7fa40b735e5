// Package planio loads a rename plan from JSON without unmarshalling it
// into an intermediate struct: the spec-name form is just a flat array of
// strings, and the table-name form is a flat object of index strings to
// replacement names, both shapes jsonparser is built to scan directly.
package planio

import (
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
)

// LoadSpecNamePlan parses the spec-name rename plan form — an
// insertion-ordered set of names — from a JSON array of strings,
// preserving array order and rejecting duplicates.
func LoadSpecNamePlan(data []byte) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	var firstErr error

	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, _ error) {
		if firstErr != nil {
			return
		}
		if dataType != jsonparser.String {
			firstErr = fmt.Errorf("planio: spec-name plan entry at offset %d is not a string", offset)
			return
		}
		s, err := jsonparser.ParseString(value)
		if err != nil {
			firstErr = fmt.Errorf("planio: parse spec-name plan entry: %w", err)
			return
		}
		if seen[s] {
			firstErr = fmt.Errorf("planio: duplicate spec-name plan entry %q", s)
			return
		}
		seen[s] = true
		names = append(names, s)
	})
	if err != nil {
		return nil, fmt.Errorf("planio: parse spec-name plan: %w", err)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return names, nil
}

// LoadTableNamePlan parses the table-name rename plan form — a mapping
// from original index to new name — from a flat JSON object whose keys
// are decimal string indices.
func LoadTableNamePlan(data []byte) (map[int]string, error) {
	out := make(map[int]string)
	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.String {
			return fmt.Errorf("planio: table-name plan entry %q is not a string", key)
		}
		idx, err := strconv.Atoi(string(key))
		if err != nil {
			return fmt.Errorf("planio: table-name plan key %q is not an index: %w", key, err)
		}
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return fmt.Errorf("planio: parse table-name plan value for %q: %w", key, err)
		}
		out[idx] = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("planio: parse table-name plan: %w", err)
	}
	return out, nil
}
