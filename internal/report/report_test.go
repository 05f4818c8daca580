package report

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jasonharmongit/JASONdata/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupGenerator(t *testing.T) (*Generator, *tabular.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	logger := zap.NewNop()
	return NewGenerator(db, logger), tabular.NewService(db, logger)
}

func TestGenerate(t *testing.T) {
	g, tables := setupGenerator(t)
	ctx := context.Background()

	frame := &tabular.Frame{
		Columns: []string{"age", "city", "notes"},
		Rows: [][]string{
			{"34", "Oslo", ""},
			{"51", "Lima", ""},
			{"28", "Oslo", ""},
			{"", "Oslo", ""},
			{"40", "Reyk", ""},
		},
	}
	require.NoError(t, tables.Materialize(ctx, "people", frame))

	rep, err := g.Generate(ctx, "people")
	require.NoError(t, err)

	assert.Equal(t, 5, rep.TotalRows)
	assert.Equal(t, 3, rep.TotalColumns)

	age, ok := rep.NumericStats["age"]
	require.True(t, ok, "age should be numeric")
	assert.Equal(t, 4, age.Count)
	assert.Equal(t, 28.0, age.Min)
	assert.Equal(t, 51.0, age.Max)
	assert.InDelta(t, 38.25, age.Mean, 1e-9)
	assert.Equal(t, 1, rep.MissingValues["age"])

	dist, ok := rep.NumericDistributions["age"]
	require.True(t, ok)
	assert.Equal(t, 2, dist.Histogram.BucketCount)
	assert.GreaterOrEqual(t, dist.BoxPlot.WhiskerLow, dist.BoxPlot.Min)
	assert.LessOrEqual(t, dist.BoxPlot.WhiskerHigh, dist.BoxPlot.Max)

	city, ok := rep.CategoricalStats["city"]
	require.True(t, ok, "city should be categorical")
	assert.Equal(t, 5, city.Count)
	assert.Equal(t, 3, city.UniqueValues)
	require.NotEmpty(t, city.TopValues)
	assert.Equal(t, ValueCount{Value: "Oslo", Count: 3}, city.TopValues[0])

	// All-missing column: categorical with no values and no distribution.
	assert.Equal(t, 5, rep.MissingValues["notes"])
	_, hasDist := rep.NumericDistributions["notes"]
	assert.False(t, hasDist)
	notes := rep.CategoricalStats["notes"]
	assert.Zero(t, notes.Count)
	assert.Empty(t, notes.TopValues)
}

func TestGenerateMostlyNumericWithNoise(t *testing.T) {
	g, tables := setupGenerator(t)
	ctx := context.Background()

	// 7 of 10 values parse: numeric at the inclusive boundary, with the
	// unparseable entries counted as missing.
	rows := [][]string{
		{"1"}, {"2"}, {"3"}, {"4"}, {"5"}, {"6"}, {"7"},
		{"n/a"}, {"n/a"}, {"unknown"},
	}
	frame := &tabular.Frame{Columns: []string{"reading"}, Rows: rows}
	require.NoError(t, tables.Materialize(ctx, "readings", frame))

	rep, err := g.Generate(ctx, "readings")
	require.NoError(t, err)

	stats, ok := rep.NumericStats["reading"]
	require.True(t, ok)
	assert.Equal(t, 7, stats.Count)
	assert.Equal(t, 3, rep.MissingValues["reading"])
}

func TestGenerateMissingTable(t *testing.T) {
	g, _ := setupGenerator(t)
	_, err := g.Generate(context.Background(), "never_created")
	assert.Error(t, err)
}
