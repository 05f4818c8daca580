// Package report builds per-column statistical summaries of derived data
// tables: numeric distributions for columns that are mostly parseable as
// numbers, value counts for everything else.
package report

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// wideTableWarning is the column count above which a report is likely to be
// uncomfortably large for clients. Generation proceeds regardless.
const wideTableWarning = 500

// Report is the full analysis of one derived data table.
type Report struct {
	NumericStats         map[string]NumericSummary     `json:"numeric_stats"`
	CategoricalStats     map[string]CategoricalSummary `json:"categorical_stats"`
	MissingValues        map[string]int                `json:"missing_values"`
	TotalRows            int                           `json:"total_rows"`
	TotalColumns         int                           `json:"total_columns"`
	NumericDistributions map[string]Distribution       `json:"numeric_distributions"`
}

// Generator loads whole tables into memory and computes reports.
type Generator struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewGenerator(db *gorm.DB, logger *zap.Logger) *Generator {
	return &Generator{db: db, logger: logger}
}

// Generate reads every row of tableName and classifies and summarizes each
// column. tableName must already be sanitized.
func (g *Generator) Generate(ctx context.Context, tableName string) (*Report, error) {
	columns, cells, err := g.load(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("generate report for %q: %w", tableName, err)
	}

	if len(columns) > wideTableWarning {
		g.logger.Warn("Generating report for a very wide table",
			zap.String("table", tableName),
			zap.Int("columns", len(columns)))
	}

	rep := &Report{
		NumericStats:         make(map[string]NumericSummary),
		CategoricalStats:     make(map[string]CategoricalSummary),
		MissingValues:        make(map[string]int),
		TotalColumns:         len(columns),
		NumericDistributions: make(map[string]Distribution),
	}
	if len(cells) > 0 {
		rep.TotalRows = len(cells[0])
	}

	for i, col := range columns {
		numeric, parsed, missing := classifyColumn(cells[i])
		rep.MissingValues[col] = missing

		if numeric {
			// Unparseable values were coerced to missing for stats purposes.
			rep.MissingValues[col] = rep.TotalRows - len(parsed)
			rep.NumericStats[col] = summarize(parsed)
			if len(parsed) > 0 {
				rep.NumericDistributions[col] = Distribution{
					Histogram: histogram(parsed),
					BoxPlot:   boxPlot(parsed),
				}
			}
			continue
		}

		total, unique, top := valueCounts(cells[i], maxCategories)
		rep.CategoricalStats[col] = CategoricalSummary{
			Count:        total,
			UniqueValues: unique,
			TopValues:    top,
		}
	}

	return rep, nil
}

// load scans the whole table column-major: cells[i][j] is row j of column i,
// nil for NULL.
func (g *Generator) load(ctx context.Context, tableName string) ([]string, [][]*string, error) {
	rows, err := g.db.WithContext(ctx).Raw(fmt.Sprintf(`SELECT * FROM "%s"`, tableName)).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	cells := make([][]*string, len(columns))
	scan := make([]sql.NullString, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range scan {
		ptrs[i] = &scan[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, ns := range scan {
			if ns.Valid {
				v := ns.String
				cells[i] = append(cells[i], &v)
			} else {
				cells[i] = append(cells[i], nil)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, cells, nil
}
