package store

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// IntSet is a sorted set of small integers stored as a comma-separated
// string, e.g. "1,2,4".
type IntSet []int

// Value implements driver.Valuer.
func (s IntSet) Value() (driver.Value, error) {
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner.
func (s *IntSet) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan IntSet: unsupported type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make(IntSet, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("scan IntSet %q: %w", raw, err)
		}
		out = append(out, n)
	}
	slices.Sort(out)
	*s = slices.Compact(out)
	return nil
}
