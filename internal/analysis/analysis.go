// Package analysis runs the cleaning, outlier and skewness pipeline over a
// loaded table and assembles the result handed to sinks.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/config"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/insights"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/outlier"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
	"github.com/alexanderjulianmartinez/outlier-watch/internal/transform"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

type ExcludeRule struct {
	Column string
	Value  string
}

type Options struct {
	Exclude []ExcludeRule
	Drop    []string
	// Columns to measure; empty selects every numeric column left after
	// cleaning.
	Columns   []string
	Transform string
	Parallel  bool
	// Insights is nil when the grouping questions are disabled.
	Insights *insights.Options
}

// FromConfig maps the loaded configuration onto pipeline options.
func FromConfig(cfg *config.Config) Options {
	opts := Options{
		Drop:      append([]string(nil), cfg.Clean.Drop...),
		Columns:   append([]string(nil), cfg.Analysis.Columns...),
		Transform: cfg.Analysis.Transform,
		Parallel:  cfg.Analysis.Parallel,
	}
	for _, rule := range cfg.Clean.Exclude {
		opts.Exclude = append(opts.Exclude, ExcludeRule{Column: rule.Column, Value: rule.Value})
	}
	if in := cfg.Insights; in.Enabled {
		opts.Insights = &insights.Options{
			GroupBy:      in.GroupBy,
			PriceColumn:  in.PriceColumn,
			VolumeColumn: in.VolumeColumn,
			PLUColumn:    in.PLUColumn,
			TopN:         in.TopN,
			Budget:       in.Budget(),
			DaysPerWeek:  in.DaysPerWeek,
		}
	}
	return opts
}

// Clean applies the exclusion rules and drops the configured columns.
// Rows with a missing value in an exclusion column are kept.
func Clean(t *table.Table, exclude []ExcludeRule, drop []string) (*table.Table, error) {
	for _, rule := range exclude {
		if _, _, ok := t.Schema().Lookup(rule.Column); !ok {
			return nil, &table.UnknownColumnError{Column: rule.Column}
		}
		t = t.Where(func(r table.Row) bool {
			v := r.Get(rule.Column)
			return v.IsMissing() || v.String() != rule.Value
		})
	}
	if len(drop) == 0 {
		return t, nil
	}
	return t.Drop(drop...)
}

// Run executes the pipeline. The input table is never modified.
func Run(ctx context.Context, logger *slog.Logger, t *table.Table, opts Options) (*types.AnalysisResult, error) {
	res := &types.AnalysisResult{RowsIn: t.Len(), Transform: opts.Transform}
	if res.Transform == "" {
		res.Transform = config.TransformNone
	}

	cleaned, err := Clean(t, opts.Exclude, opts.Drop)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	res.RowsAfterClean = cleaned.Len()
	res.NullCounts = cleaned.NullCounts()
	logger.Info("cleaned table",
		slog.Int("rows_in", res.RowsIn),
		slog.Int("rows_after_clean", res.RowsAfterClean),
		slog.Int("columns", cleaned.Schema().Len()))

	columns := opts.Columns
	if len(columns) == 0 {
		columns = cleaned.Schema().Numeric()
	}
	var filterOpts []outlier.Option
	if opts.Parallel {
		filterOpts = append(filterOpts, outlier.WithParallel())
	}
	all, err := outlier.New(cleaned.Schema(), columns, filterOpts...)
	if err != nil {
		return nil, fmt.Errorf("select columns: %w", err)
	}

	before, err := all.Skewness(cleaned)
	empty, err := emptyColumns(err)
	if err != nil {
		return nil, fmt.Errorf("skewness before removal: %w", err)
	}
	for _, name := range empty {
		res.Warnings = append(res.Warnings, fmt.Sprintf("column %q has no values and was skipped", name))
		logger.Warn("skipping empty column", slog.String("column", name))
	}
	active := without(columns, empty)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := outlier.New(cleaned.Schema(), active, filterOpts...)
	if err != nil {
		return nil, err
	}
	bounds, err := f.Bounds(cleaned)
	if err != nil {
		return nil, fmt.Errorf("outlier bounds: %w", err)
	}
	counts, err := f.CountOutliers(cleaned)
	if err != nil {
		return nil, fmt.Errorf("count outliers: %w", err)
	}
	filtered, err := outlier.Apply(cleaned, bounds)
	if err != nil {
		return nil, fmt.Errorf("remove outliers: %w", err)
	}
	res.RowsOut = filtered.Len()
	logger.Info("removed outliers",
		slog.Int("rows_removed", res.RowsRemoved()),
		slog.Int("rows_out", res.RowsOut))

	after, err := f.Skewness(filtered)
	emptyAfter, err := emptyColumns(err)
	if err != nil {
		return nil, fmt.Errorf("skewness after removal: %w", err)
	}
	for _, name := range emptyAfter {
		res.Warnings = append(res.Warnings, fmt.Sprintf("column %q has no values after outlier removal", name))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var transformed outlier.SkewnessReport
	lambdas := map[string]float64{}
	if res.Transform == config.TransformYeoJohnson {
		transformed, err = transformSkewness(logger, filtered, without(active, emptyAfter), lambdas, res, filterOpts)
		if err != nil {
			return nil, err
		}
	}

	for _, name := range columns {
		col := types.ColumnResult{Column: name}
		s, _ := before.Lookup(name)
		col.SkewBefore = toSkew(s)
		col.Severity = outlier.SeverityForSkew(s)
		for _, b := range bounds {
			if b.Column == name {
				col.Q1, col.Q3, col.Lower, col.Upper = &b.Q1, &b.Q3, &b.Lower, &b.Upper
			}
		}
		col.Outliers, _ = counts.Lookup(name)
		if s, ok := after.Lookup(name); ok {
			col.SkewAfter = toSkew(s)
		} else {
			col.SkewAfter = types.Skew{Value: math.NaN()}
		}
		if s, ok := transformed.Lookup(name); ok {
			sk := toSkew(s)
			col.SkewTransformed = &sk
			if l, ok := lambdas[name]; ok {
				col.Lambda = &l
			}
		}
		res.Columns = append(res.Columns, col)
		logger.Debug("column analysed",
			slog.String("column", name),
			slog.Int("outliers", col.Outliers),
			slog.String("severity", col.Severity),
			slog.String("skew", outlier.MessageForSkew(s)))
	}

	if opts.Insights != nil {
		in := *opts.Insights
		if in.Keys == nil {
			// Groups emptied by outlier removal still get totals.
			if in.Keys, err = insights.Keys(cleaned, in.GroupBy); err != nil {
				return nil, fmt.Errorf("insights: %w", err)
			}
		}
		ins, err := insights.Answer(filtered, in)
		if err != nil {
			return nil, fmt.Errorf("insights: %w", err)
		}
		res.Insights = ins
	}
	return res, nil
}

// transformSkewness fits Yeo-Johnson column by column on the filtered table
// and measures the skewness of the result. A column whose fit fails is
// reported as a warning and left out.
func transformSkewness(
	logger *slog.Logger,
	filtered *table.Table,
	columns []string,
	lambdas map[string]float64,
	res *types.AnalysisResult,
	filterOpts []outlier.Option,
) (outlier.SkewnessReport, error) {
	yj := transform.YeoJohnson{Standardize: true}
	out := filtered
	var fitted []string
	for _, name := range columns {
		next, ls, err := yj.FitTransform(out, []string{name})
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("yeo-johnson %q: %v", name, err))
			logger.Warn("yeo-johnson fit failed", slog.String("column", name), slog.Any("error", err))
			continue
		}
		out = next
		lambdas[name] = ls[0].Value
		fitted = append(fitted, name)
	}
	f, err := outlier.New(out.Schema(), fitted, filterOpts...)
	if err != nil {
		return nil, err
	}
	report, err := f.Skewness(out)
	if err != nil {
		return nil, fmt.Errorf("skewness after transform: %w", err)
	}
	return report, nil
}

// emptyColumns splits EmptyColumnErrors out of a skewness error and returns
// any other error unchanged.
func emptyColumns(err error) ([]string, error) {
	if err == nil {
		return nil, nil
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	var names []string
	for _, e := range errs {
		var empty *table.EmptyColumnError
		if !errors.As(e, &empty) {
			return nil, err
		}
		names = append(names, empty.Column)
	}
	return names, nil
}

func without(columns, skip []string) []string {
	if len(skip) == 0 {
		return columns
	}
	drop := make(map[string]bool, len(skip))
	for _, s := range skip {
		drop[s] = true
	}
	var out []string
	for _, c := range columns {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}

func toSkew(s outlier.Skew) types.Skew {
	return types.Skew{Value: s.Value, Defined: s.Defined}
}
