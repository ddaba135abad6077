// Package outlier detects and removes IQR outliers from the numeric columns
// of a table and reports per-column skewness before and after removal.
//
// The numeric column set is fixed when a Filter is built. Bounds are always
// computed from the table handed to the call, never from partially filtered
// intermediate data, so the columns can be processed in any order (or in
// parallel) with identical results.
package outlier

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

// Skew is the skewness of one column. Value is NaN when Defined is false.
type Skew struct {
	Column  string
	Value   float64
	Defined bool
}

// SkewnessReport holds one entry per column in filter column order.
type SkewnessReport []Skew

// Lookup returns the entry for column.
func (r SkewnessReport) Lookup(column string) (Skew, bool) {
	for _, s := range r {
		if s.Column == column {
			return s, true
		}
	}
	return Skew{}, false
}

type OutlierCount struct {
	Column string
	Count  int
}

// OutlierReport holds one entry per column in filter column order.
type OutlierReport []OutlierCount

func (r OutlierReport) Lookup(column string) (int, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Count, true
		}
	}
	return 0, false
}

// Bounds are the inclusive Tukey fences of one column.
type Bounds struct {
	Column string
	Q1     float64
	Q3     float64
	Lower  float64
	Upper  float64
}

func (b Bounds) IQR() float64 { return b.Q3 - b.Q1 }

// Contains reports whether v lies within [Lower, Upper].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

type Option func(*Filter)

// WithParallel computes per-column statistics concurrently.
func WithParallel() Option {
	return func(f *Filter) { f.parallel = true }
}

// Filter is a stateless outlier pipeline over a fixed set of numeric columns.
type Filter struct {
	columns  []string
	parallel bool
}

// New validates columns against schema: every name must exist and be
// numeric. The column list is copied and fixed for the filter's lifetime.
func New(schema table.Schema, columns []string, opts ...Option) (*Filter, error) {
	if err := schema.RequireNumeric(columns); err != nil {
		return nil, err
	}
	f := &Filter{columns: append([]string(nil), columns...)}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Filter) Columns() []string {
	return append([]string(nil), f.columns...)
}

// forEach runs fn once per column index. Results must be written by index
// so that the parallel and sequential paths agree.
func (f *Filter) forEach(fn func(i int) error) error {
	if !f.parallel {
		for i := range f.columns {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	var g errgroup.Group
	for i := range f.columns {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// Skewness computes the sample skewness of every column. Columns with no
// present values are reported as undefined and their EmptyColumnErrors are
// joined into the returned error; the report is complete either way.
func (f *Filter) Skewness(t *table.Table) (SkewnessReport, error) {
	report := make(SkewnessReport, len(f.columns))
	errs := make([]error, len(f.columns))
	err := f.forEach(func(i int) error {
		name := f.columns[i]
		values, err := t.Numbers(name)
		if err != nil {
			return err
		}
		report[i] = Skew{Column: name}
		if len(values) == 0 {
			errs[i] = &table.EmptyColumnError{Column: name}
			report[i].Value, report[i].Defined = skewness(nil)
			return nil
		}
		report[i].Value, report[i].Defined = skewness(values)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, errors.Join(errs...)
}

// Bounds computes the outlier fences of every column.
func (f *Filter) Bounds(t *table.Table) ([]Bounds, error) {
	out := make([]Bounds, len(f.columns))
	err := f.forEach(func(i int) error {
		b, err := columnBounds(t, f.columns[i])
		if err != nil {
			return err
		}
		out[i] = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CountOutliers counts, per column, the present values strictly outside the
// column's fences. A row may be counted under several columns.
func (f *Filter) CountOutliers(t *table.Table) (OutlierReport, error) {
	bounds, err := f.Bounds(t)
	if err != nil {
		return nil, err
	}
	report := make(OutlierReport, len(bounds))
	for i, b := range bounds {
		values, err := t.Numbers(b.Column)
		if err != nil {
			return nil, err
		}
		report[i].Column = b.Column
		for _, v := range values {
			if !b.Contains(v) {
				report[i].Count++
			}
		}
	}
	return report, nil
}

// RemoveOutliers drops every row that is an outlier in at least one column.
// All fences come from t itself.
func (f *Filter) RemoveOutliers(t *table.Table) (*table.Table, error) {
	bounds, err := f.Bounds(t)
	if err != nil {
		return nil, err
	}
	return Apply(t, bounds)
}

// Apply keeps the rows whose present values all lie within the given
// fences. Missing values always pass. Re-applying the fences returned by a
// previous Bounds call to that call's output removes nothing; computing
// fresh fences from the filtered table may remove more rows.
func Apply(t *table.Table, bounds []Bounds) (*table.Table, error) {
	names := make([]string, len(bounds))
	for i, b := range bounds {
		names[i] = b.Column
	}
	if err := t.Schema().RequireNumeric(names); err != nil {
		return nil, err
	}
	return t.Where(func(r table.Row) bool {
		for _, b := range bounds {
			if v, ok := r.Float(b.Column); ok && !b.Contains(v) {
				return false
			}
		}
		return true
	}), nil
}

func columnBounds(t *table.Table, column string) (Bounds, error) {
	values, err := t.Numbers(column)
	if err != nil {
		return Bounds{}, err
	}
	if len(values) == 0 {
		return Bounds{}, &table.EmptyColumnError{Column: column}
	}
	q1, q3 := quartiles(values)
	iqr := q3 - q1
	return Bounds{
		Column: column,
		Q1:     q1,
		Q3:     q3,
		Lower:  q1 - fence*iqr,
		Upper:  q3 + fence*iqr,
	}, nil
}

// ComputeSkewness is a convenience wrapper around New and Filter.Skewness.
func ComputeSkewness(t *table.Table, columns []string) (SkewnessReport, error) {
	f, err := New(t.Schema(), columns)
	if err != nil {
		return nil, err
	}
	return f.Skewness(t)
}

// ComputeOutlierBounds returns the lower and upper fence of one column.
func ComputeOutlierBounds(t *table.Table, column string) (lower, upper float64, err error) {
	b, err := columnBounds(t, column)
	if err != nil {
		return 0, 0, err
	}
	return b.Lower, b.Upper, nil
}

func CountOutliers(t *table.Table, columns []string) (OutlierReport, error) {
	f, err := New(t.Schema(), columns)
	if err != nil {
		return nil, err
	}
	return f.CountOutliers(t)
}

func RemoveOutliers(t *table.Table, columns []string) (*table.Table, error) {
	f, err := New(t.Schema(), columns)
	if err != nil {
		return nil, err
	}
	return f.RemoveOutliers(t)
}
