package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTableName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase and underscores", "My Table!", "my_table_"},
		{"leading digit gets prefix", "123abc", "t_123abc"},
		{"already clean", "sales_2024", "sales_2024"},
		{"punctuation only", "!!!", "t____"},
		{"unicode replaced", "café", "caf_"},
		{"leading underscore gets prefix", "_hidden", "t__hidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeTableName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeTableNameIdempotent(t *testing.T) {
	inputs := []string{"My Table!", "123abc", "a", "weird--name__", strings.Repeat("x y", 40)}
	for _, in := range inputs {
		once, err := SanitizeTableName(in)
		require.NoError(t, err)
		twice, err := SanitizeTableName(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "sanitize(sanitize(%q))", in)
	}
}

func TestSanitizeTableNameTruncates(t *testing.T) {
	got, err := SanitizeTableName(strings.Repeat("a", 100))
	require.NoError(t, err)
	assert.Len(t, got, 63)
}

func TestSanitizeTableNameEmpty(t *testing.T) {
	_, err := SanitizeTableName("")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)

	_, err = SanitizeTableName("   ")
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
}

func TestSanitizeColumnName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Full Name", "full_name"},
		{"Age (yrs)", "age__yrs_"},
		{"2nd place", "col_2nd_place"},
		{"ID", "id"},
	}
	for _, tt := range tests {
		got, err := SanitizeColumnName(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSanitizeHeaderCollisions(t *testing.T) {
	got, err := SanitizeHeader([]string{"a b", "a_b", "A B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b", "a_b_2", "a_b_3"}, got)
}

func TestSanitizeHeaderSuffixCollidesWithLiteralHeader(t *testing.T) {
	// A generated suffix must not collide with a header that already cleaned
	// to that name: the duplicate "a" has to skip past the literal "a_2".
	got, err := SanitizeHeader([]string{"a", "a_2", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "a_3"}, got)

	// And a literal header may collide with an earlier generated suffix.
	got, err = SanitizeHeader([]string{"a", "a", "a_2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "a_2_2"}, got)
}

func TestSanitizeHeaderAlwaysUnique(t *testing.T) {
	headers := []string{"x", "x", "x_2", "x 2", "x!2", "x_2_2", "x"}
	got, err := SanitizeHeader(headers)
	require.NoError(t, err)
	require.Len(t, got, len(headers))

	seen := make(map[string]bool)
	for _, col := range got {
		assert.False(t, seen[col], "duplicate identifier %q in %v", col, got)
		seen[col] = true
	}
}

func TestSanitizeHeaderEmptyColumn(t *testing.T) {
	_, err := SanitizeHeader([]string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyIdentifier)
}
