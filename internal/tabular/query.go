package tabular

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotSelect is returned for ad hoc queries that are not plain SELECT
	// statements.
	ErrNotSelect = errors.New("tabular: only SELECT statements are allowed")
	// ErrUnknownColumn is returned when sort_by or filter_by names a column
	// the schema registry does not list for the table.
	ErrUnknownColumn = errors.New("tabular: unknown column")
	// ErrBadSortOrder is returned for sort orders other than asc/desc.
	ErrBadSortOrder = errors.New("tabular: sort order must be asc or desc")
)

// ResultSet is the uniform envelope for reads against a derived data table.
type ResultSet struct {
	Rows    []map[string]interface{} `json:"rows"`
	Columns []string                 `json:"columns"`
	Total   int64                    `json:"total"`
}

// BrowseOptions paginates, sorts, and filters a table scan. SortBy and
// FilterBy must name registered columns; FilterValue matches as a
// case-insensitive substring.
type BrowseOptions struct {
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string
	FilterBy    string
	FilterValue string
}

const defaultLimit = 100

// Browse pages through a derived data table. allowedColumns is the table's
// registered column list and doubles as the identifier allowlist for SortBy
// and FilterBy; the filter value itself is bound as a parameter.
func (s *Service) Browse(ctx context.Context, tableName string, allowedColumns []string, opts BrowseOptions) (*ResultSet, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	var (
		where string
		args  []interface{}
	)
	if opts.FilterBy != "" {
		if !containsColumn(allowedColumns, opts.FilterBy) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, opts.FilterBy)
		}
		where = fmt.Sprintf(` WHERE LOWER(%s) LIKE ?`, quoteIdent(opts.FilterBy))
		args = append(args, "%"+strings.ToLower(opts.FilterValue)+"%")
	}

	order := ""
	if opts.SortBy != "" {
		if !containsColumn(allowedColumns, opts.SortBy) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, opts.SortBy)
		}
		dir := strings.ToLower(opts.SortOrder)
		if dir == "" {
			dir = "asc"
		}
		if dir != "asc" && dir != "desc" {
			return nil, fmt.Errorf("%w: %q", ErrBadSortOrder, opts.SortOrder)
		}
		order = fmt.Sprintf(` ORDER BY %s %s`, quoteIdent(opts.SortBy), strings.ToUpper(dir))
	}

	var total int64
	count := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, quoteIdent(tableName), where)
	if err := s.db.WithContext(ctx).Raw(count, args...).Scan(&total).Error; err != nil {
		return nil, fmt.Errorf("browse %q: count: %w", tableName, err)
	}

	query := fmt.Sprintf(`SELECT * FROM %s%s%s LIMIT %d OFFSET %d`,
		quoteIdent(tableName), where, order, opts.Limit, opts.Offset)
	columns, rows, err := s.collect(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("browse %q: %w", tableName, err)
	}

	return &ResultSet{Rows: rows, Columns: columns, Total: total}, nil
}

// RunQuery executes an ad hoc read-only query with pagination appended. Only
// statements whose trimmed text begins with SELECT (case-insensitive) are
// accepted. Total reflects the rows in the returned page, not the
// unpaginated result.
func (s *Service) RunQuery(ctx context.Context, rawQuery string, limit, offset int) (*ResultSet, error) {
	trimmed := strings.TrimSpace(rawQuery)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return nil, ErrNotSelect
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s LIMIT %d OFFSET %d`, strings.TrimSuffix(trimmed, ";"), limit, offset)
	columns, rows, err := s.collect(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	return &ResultSet{Rows: rows, Columns: columns, Total: int64(len(rows))}, nil
}

// collect runs a query and shapes the result into column-ordered maps, with
// the column list taken from the live result rather than the registry.
func (s *Service) collect(ctx context.Context, query string, args ...interface{}) ([]string, []map[string]interface{}, error) {
	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, out, nil
}

// normalizeValue renders driver values as JSON-friendly types.
func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case sql.RawBytes:
		return string(t)
	default:
		return v
	}
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
