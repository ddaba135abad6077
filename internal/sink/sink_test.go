package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

func float(v float64) *float64 { return &v }

func sampleResult() *types.AnalysisResult {
	lambda := 0.25
	return &types.AnalysisResult{
		Source:         "csv:avocado.csv",
		RowsIn:         16,
		RowsAfterClean: 14,
		RowsOut:        12,
		Transform:      config.TransformYeoJohnson,
		NullCounts: []types.NullCount{
			{Column: "AveragePrice", Missing: 0},
			{Column: "region", Missing: 1},
		},
		Columns: []types.ColumnResult{
			{
				Column:          "AveragePrice",
				Q1:              float(1.1),
				Q3:              float(1.5),
				Lower:           float(0.5),
				Upper:           float(2.1),
				Outliers:        2,
				SkewBefore:      types.Skew{Value: 1.75, Defined: true},
				SkewAfter:       types.Skew{Value: 0.2, Defined: true},
				SkewTransformed: &types.Skew{Value: 0.01, Defined: true},
				Lambda:          &lambda,
				Severity:        "HIGH",
			},
			{
				Column:     "year",
				Q1:         float(2015),
				Q3:         float(2015),
				Lower:      float(2015),
				Upper:      float(2015),
				SkewBefore: types.Skew{Value: math.NaN()},
				SkewAfter:  types.Skew{Value: math.NaN()},
				Severity:   "UNDEFINED",
			},
			{
				Column:     "4770",
				SkewBefore: types.Skew{Value: math.NaN()},
				SkewAfter:  types.Skew{Value: math.NaN()},
				Severity:   "UNDEFINED",
			},
		},
		Insights: &types.Insights{
			GroupBy:          "region",
			AveragePLU:       []types.GroupValue{{Group: "Albany", Value: 900, Count: 6}, {Group: "Atlanta", Value: 1200, Count: 6}},
			TopVolume:        []types.GroupValue{{Group: "Atlanta", Value: 5000, Count: 6}},
			Budget:           5.3333,
			AffordablePrices: []types.GroupValue{{Group: "Albany", Value: 1.2, Count: 6}},
			BestAffordable:   &types.GroupValue{Group: "Albany", Value: 1.2, Count: 6},
			DailyVolume:      []types.GroupValue{{Group: "Atlanta", Value: 714.2857, Count: 6}},
			BestDailyVolume:  &types.GroupValue{Group: "Atlanta", Value: 714.2857, Count: 6},
		},
		Warnings: []string{`column "4770" has no values and was skipped`},
	}
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	s := NewText(&buf)
	require.NoError(t, s.Write(context.Background(), sampleResult()))
	require.NoError(t, s.Close())
	out := buf.String()

	assert.Contains(t, out, "Source: csv:avocado.csv")
	assert.Contains(t, out, "Rows: 16 in, 14 after cleaning, 12 after outlier removal (2 removed)")
	assert.Contains(t, out, "Transform: yeo-johnson")
	assert.Contains(t, out, "Best affordable: Albany at 1.2000")
	assert.Contains(t, out, "Best daily volume: Atlanta with 714.2857")
	assert.Contains(t, out, `- column "4770" has no values and was skipped`)

	var skewLine, yearLine, boundsLine, emptyLine string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "AveragePrice") && strings.Contains(line, "HIGH"):
			skewLine = line
		case strings.HasPrefix(line, "AveragePrice"):
			boundsLine = line
		case strings.HasPrefix(line, "year") && strings.Contains(line, "UNDEFINED"):
			yearLine = line
		case strings.HasPrefix(line, "4770") && !strings.Contains(line, "UNDEFINED"):
			emptyLine = line
		}
	}
	assert.Equal(t, []string{"AveragePrice", "1.7500", "0.2000", "0.0100", "0.2500", "HIGH"}, strings.Fields(skewLine))
	assert.Equal(t, []string{"year", "undefined", "undefined", "-", "-", "UNDEFINED"}, strings.Fields(yearLine))
	assert.Equal(t, []string{"AveragePrice", "1.1000", "1.5000", "0.5000", "2.1000", "2"}, strings.Fields(boundsLine))
	assert.Equal(t, []string{"4770", "-", "-", "-", "-", "0"}, strings.Fields(emptyLine))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSON(&buf).Write(context.Background(), sampleResult()))

	var got types.AnalysisResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 12, got.RowsOut)
	require.Len(t, got.Columns, 3)
	assert.Equal(t, types.Skew{Value: 1.75, Defined: true}, got.Columns[0].SkewBefore)
	require.NotNil(t, got.Columns[0].Upper)
	assert.Equal(t, 2.1, *got.Columns[0].Upper)
	assert.False(t, got.Columns[1].SkewBefore.Defined)
	assert.Nil(t, got.Columns[1].SkewTransformed)
	assert.Nil(t, got.Columns[2].Q1)
	assert.Contains(t, buf.String(), `"lower": null`)
	require.NotNil(t, got.Insights)
	assert.Equal(t, "Albany", got.Insights.BestAffordable.Group)
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""), "output is indented")
}

func TestXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	s := NewXLSX(path)
	assert.Equal(t, "xlsx:"+path, s.Name())
	require.NoError(t, s.Write(context.Background(), sampleResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Skewness", "Outliers", "Nulls", "Insights"}, f.GetSheetList())

	rows, err := f.GetRows("Skewness")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Column", "Before", "After", "Transformed", "Lambda", "Severity"}, rows[0])
	assert.Equal(t, "AveragePrice", rows[1][0])
	assert.Equal(t, "HIGH", rows[1][5])
	assert.Equal(t, "year", rows[2][0])
	assert.Equal(t, "", rows[2][1])

	rows, err = f.GetRows("Outliers")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"AveragePrice", "1.1", "1.5", "0.5", "2.1", "2"}, rows[1])
	assert.Equal(t, []string{"4770", "", "", "", "", "0"}, rows[3])

	rows, err = f.GetRows("Nulls")
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "1"}, rows[2])

	rows, err = f.GetRows("Insights")
	require.NoError(t, err)
	assert.Equal(t, "Average PLU volume", rows[0][0])
	assert.Equal(t, []string{"region", "Value"}, rows[1][:2])
	assert.Equal(t, "Albany", rows[2][0])
}

func TestXLSXWithoutInsights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	res := sampleResult()
	res.Insights = nil
	require.NoError(t, NewXLSX(path).Write(context.Background(), res))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.NotContains(t, f.GetSheetList(), "Insights")
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		cfg  config.SinkConfig
		name string
	}{
		{config.SinkConfig{Type: config.SinkText}, "text"},
		{config.SinkConfig{Type: config.SinkJSON}, "json"},
		{config.SinkConfig{Type: config.SinkXLSX, Path: "out.xlsx"}, "xlsx:out.xlsx"},
		{config.SinkConfig{Type: config.SinkKafka, Brokers: []string{"localhost:9092"}, Topic: "outliers"}, "kafka:outliers"},
	}
	for _, tt := range tests {
		s, err := New(tt.cfg, &buf)
		require.NoError(t, err)
		assert.Equal(t, tt.name, s.Name())
		require.NoError(t, s.Close())
	}

	_, err := New(config.SinkConfig{Type: "parquet"}, &buf)
	require.Error(t, err)
}
