package sink

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

const (
	sheetSummary  = "Summary"
	sheetSkewness = "Skewness"
	sheetOutliers = "Outliers"
	sheetNulls    = "Nulls"
	sheetInsights = "Insights"
)

// XLSX writes the result as a workbook with one sheet per section.
type XLSX struct {
	path string
}

func NewXLSX(path string) *XLSX {
	return &XLSX{path: path}
}

func (x *XLSX) Name() string { return "xlsx:" + x.path }

func (x *XLSX) Close() error { return nil }

func (x *XLSX) Write(_ context.Context, res *types.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetSkewness, sheetOutliers, sheetNulls} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	rows := map[string][][]any{
		sheetSummary: {
			{"Source", res.Source},
			{"Rows in", res.RowsIn},
			{"Rows after cleaning", res.RowsAfterClean},
			{"Rows after outlier removal", res.RowsOut},
			{"Rows removed", res.RowsRemoved()},
			{"Transform", res.Transform},
		},
		sheetSkewness: {{"Column", "Before", "After", "Transformed", "Lambda", "Severity"}},
		sheetOutliers: {{"Column", "Q1", "Q3", "Lower", "Upper", "Outliers"}},
		sheetNulls:    {{"Column", "Missing"}},
	}
	for _, w := range res.Warnings {
		rows[sheetSummary] = append(rows[sheetSummary], []any{"Warning", w})
	}
	for _, c := range res.Columns {
		var transformed, lambda any
		if c.SkewTransformed != nil {
			transformed = skewCell(*c.SkewTransformed)
		}
		if c.Lambda != nil {
			lambda = *c.Lambda
		}
		rows[sheetSkewness] = append(rows[sheetSkewness],
			[]any{c.Column, skewCell(c.SkewBefore), skewCell(c.SkewAfter), transformed, lambda, c.Severity})
		rows[sheetOutliers] = append(rows[sheetOutliers],
			[]any{c.Column, boundCell(c.Q1), boundCell(c.Q3), boundCell(c.Lower), boundCell(c.Upper), c.Outliers})
	}
	for _, nc := range res.NullCounts {
		rows[sheetNulls] = append(rows[sheetNulls], []any{nc.Column, nc.Missing})
	}

	if in := res.Insights; in != nil {
		if _, err := f.NewSheet(sheetInsights); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheetInsights, err)
		}
		rows[sheetInsights] = insightRows(in)
	}

	for sheet, data := range rows {
		for i, row := range data {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
			}
		}
	}

	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// insightRows lays the grouped answers out side by side, one
// group/value column pair per question.
func insightRows(in *types.Insights) [][]any {
	sections := []struct {
		title  string
		values []types.GroupValue
	}{
		{"Average PLU volume", in.AveragePLU},
		{"Top total volume", in.TopVolume},
		{"Affordable price", in.AffordablePrices},
		{"Daily volume", in.DailyVolume},
	}

	height := 0
	for _, s := range sections {
		height = max(height, len(s.values))
	}
	out := make([][]any, height+2)
	out[0] = make([]any, 2*len(sections))
	out[1] = make([]any, 2*len(sections))
	for i, s := range sections {
		out[0][2*i] = s.title
		out[1][2*i], out[1][2*i+1] = in.GroupBy, "Value"
	}
	for r := 0; r < height; r++ {
		row := make([]any, 2*len(sections))
		for i, s := range sections {
			if r < len(s.values) {
				row[2*i], row[2*i+1] = s.values[r].Group, s.values[r].Value
			}
		}
		out[r+2] = row
	}

	out = append(out, nil, []any{"Budget", in.Budget})
	if b := in.BestAffordable; b != nil {
		out = append(out, []any{"Best affordable", b.Group, b.Value})
	}
	if b := in.BestDailyVolume; b != nil {
		out = append(out, []any{"Best daily volume", b.Group, b.Value})
	}
	return out
}

// skewCell leaves undefined skewness as an empty cell.
func boundCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func skewCell(s types.Skew) any {
	if !s.Defined {
		return nil
	}
	return s.Value
}
