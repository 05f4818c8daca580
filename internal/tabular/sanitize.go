package tabular

import (
	"errors"
	"fmt"
	"strings"
)

// Postgres truncates identifiers beyond 63 bytes; reject table names early
// instead of letting the engine truncate them silently.
const maxIdentifierLen = 63

var ErrEmptyIdentifier = errors.New("tabular: identifier is empty")

// SanitizeTableName converts an arbitrary user-supplied string into a valid
// SQL table identifier: lowercase, every character outside [a-z0-9] replaced
// with an underscore, prefixed with "t_" when the result does not start with
// a letter, truncated to 63 bytes. The transform is idempotent.
func SanitizeTableName(name string) (string, error) {
	s, err := sanitize(name, "t_")
	if err != nil {
		return "", err
	}
	if len(s) > maxIdentifierLen {
		s = s[:maxIdentifierLen]
	}
	return s, nil
}

// SanitizeColumnName applies the same cleaning as SanitizeTableName but
// prefixes "col_" when the result does not start with a letter.
func SanitizeColumnName(name string) (string, error) {
	return sanitize(name, "col_")
}

// SanitizeHeader sanitizes every column header of an uploaded file. Two
// distinct headers can map to the same identifier after cleaning; silently
// overwriting a column would lose data, so duplicates get numeric suffixes
// ("_2", "_3", ...) in encounter order. A suffixed candidate can itself
// collide with a literal header, so candidates are probed against every name
// emitted so far until a free one is found.
func SanitizeHeader(header []string) ([]string, error) {
	next := make(map[string]int, len(header))
	used := make(map[string]bool, len(header))
	out := make([]string, 0, len(header))
	for i, h := range header {
		col, err := SanitizeColumnName(h)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		if used[col] {
			n := next[col]
			if n < 2 {
				n = 2
			}
			candidate := fmt.Sprintf("%s_%d", col, n)
			for used[candidate] {
				n++
				candidate = fmt.Sprintf("%s_%d", col, n)
			}
			next[col] = n + 1
			col = candidate
		}
		used[col] = true
		out = append(out, col)
	}
	return out, nil
}

func sanitize(name, prefix string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyIdentifier
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	s := b.String()
	if s[0] < 'a' || s[0] > 'z' {
		s = prefix + s
	}
	return s, nil
}
