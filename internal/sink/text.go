package sink

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

// Text renders an aligned plain-text report.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Name() string { return "text" }

func (t *Text) Close() error { return nil }

func (t *Text) Write(_ context.Context, res *types.AnalysisResult) error {
	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	p := func(format string, args ...any) {
		fmt.Fprintf(tw, format, args...)
	}

	if res.Source != "" {
		p("Source: %s\n", res.Source)
	}
	p("Rows: %d in, %d after cleaning, %d after outlier removal (%d removed)\n",
		res.RowsIn, res.RowsAfterClean, res.RowsOut, res.RowsRemoved())
	p("Transform: %s\n", res.Transform)

	p("\nMissing values\n")
	p("COLUMN\tMISSING\n")
	for _, nc := range res.NullCounts {
		p("%s\t%d\n", nc.Column, nc.Missing)
	}

	p("\nSkewness\n")
	p("COLUMN\tBEFORE\tAFTER\tTRANSFORMED\tLAMBDA\tSEVERITY\n")
	for _, c := range res.Columns {
		transformed, lambda := "-", "-"
		if c.SkewTransformed != nil {
			transformed = formatSkew(*c.SkewTransformed)
		}
		if c.Lambda != nil {
			lambda = formatFloat(*c.Lambda)
		}
		p("%s\t%s\t%s\t%s\t%s\t%s\n", c.Column, formatSkew(c.SkewBefore), formatSkew(c.SkewAfter), transformed, lambda, c.Severity)
	}

	p("\nOutliers\n")
	p("COLUMN\tQ1\tQ3\tLOWER\tUPPER\tOUTLIERS\n")
	for _, c := range res.Columns {
		p("%s\t%s\t%s\t%s\t%s\t%d\n", c.Column,
			formatBound(c.Q1), formatBound(c.Q3), formatBound(c.Lower), formatBound(c.Upper), c.Outliers)
	}

	if in := res.Insights; in != nil {
		groups := func(title string, values []types.GroupValue) {
			p("\n%s\n", title)
			p("%s\tVALUE\n", in.GroupBy)
			for _, g := range values {
				p("%s\t%s\n", g.Group, formatFloat(g.Value))
			}
		}
		groups("Average PLU volume", in.AveragePLU)
		groups("Top groups by total volume", in.TopVolume)
		groups(fmt.Sprintf("Average price where price <= %s", formatFloat(in.Budget)), in.AffordablePrices)
		if b := in.BestAffordable; b != nil {
			p("Best affordable: %s at %s\n", b.Group, formatFloat(b.Value))
		}
		groups("Estimated daily volume", in.DailyVolume)
		if b := in.BestDailyVolume; b != nil {
			p("Best daily volume: %s with %s\n", b.Group, formatFloat(b.Value))
		}
	}

	if len(res.Warnings) > 0 {
		p("\nWarnings\n")
		for _, w := range res.Warnings {
			p("- %s\n", w)
		}
	}
	return tw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatBound(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatSkew(s types.Skew) string {
	if !s.Defined {
		return "undefined"
	}
	return formatFloat(s.Value)
}
