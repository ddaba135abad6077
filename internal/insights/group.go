// Package insights answers grouping and aggregation questions over a
// cleaned table.
package insights

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

// Column names of the frames built from a table. Aggregations add
// "<column>_<TYPE>" columns such as value_MEAN.
const (
	groupCol = "group"
	valueCol = "value"
	rowsCol  = "rows"
	countCol = "count"
)

// frame copies the groupBy column and, when value is set, a numeric value
// column of t into a dataframe with a per-row counter. Rows with a missing
// group key are skipped; missing values become NaN.
func frame(t *table.Table, groupBy, value string) (dataframe.DataFrame, error) {
	if _, _, ok := t.Schema().Lookup(groupBy); !ok {
		return dataframe.DataFrame{}, &table.UnknownColumnError{Column: groupBy}
	}
	if value != "" {
		if err := t.Schema().RequireNumeric([]string{value}); err != nil {
			return dataframe.DataFrame{}, err
		}
	}

	keys := make([]string, 0, t.Len())
	values := make([]float64, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		key := row.Get(groupBy)
		if key.IsMissing() {
			continue
		}
		keys = append(keys, key.String())
		if value == "" {
			continue
		}
		v, ok := row.Float(value)
		if !ok {
			v = math.NaN()
		}
		values = append(values, v)
	}
	rows := make([]int, len(keys))
	for i := range rows {
		rows[i] = 1
	}

	cols := []series.Series{
		series.New(keys, series.String, groupCol),
		series.New(rows, series.Int, rowsCol),
	}
	if value != "" {
		cols = append(cols, series.New(values, series.Float, valueCol))
	}
	df := dataframe.New(cols...)
	return df, df.Err
}

// present keeps the rows holding a value.
var present = dataframe.F{
	Colname:    valueCol,
	Comparator: series.CompFunc,
	Comparando: func(el series.Element) bool {
		return !el.IsNA() && !math.IsNaN(el.Float())
	},
}

// aggregate reduces the present values of value per group with typ. Each
// filter is applied in turn before grouping. Groups come back sorted by key.
func aggregate(t *table.Table, groupBy, value string, typ dataframe.AggregationType, filters ...dataframe.F) ([]types.GroupValue, error) {
	df, err := frame(t, groupBy, value)
	if err != nil {
		return nil, err
	}
	for _, f := range append([]dataframe.F{present}, filters...) {
		if df.Nrow() == 0 {
			break
		}
		df = df.Filter(f)
		if df.Err != nil {
			return nil, df.Err
		}
	}
	if df.Nrow() == 0 {
		return nil, nil
	}

	agg := df.GroupBy(groupCol).
		Aggregation([]dataframe.AggregationType{typ, dataframe.Aggregation_SUM}, []string{valueCol, rowsCol}).
		Arrange(dataframe.Sort(groupCol))
	if agg.Err != nil {
		return nil, agg.Err
	}
	return groupValues(agg, aggregated(valueCol, typ), aggregated(rowsCol, dataframe.Aggregation_SUM))
}

func aggregated(col string, typ dataframe.AggregationType) string {
	return fmt.Sprintf("%s_%s", col, typ)
}

// groupValues reads one GroupValue per row of df.
func groupValues(df dataframe.DataFrame, value, count string) ([]types.GroupValue, error) {
	keys, vals, counts := df.Col(groupCol), df.Col(value), df.Col(count)
	for _, s := range []series.Series{keys, vals, counts} {
		if s.Err != nil {
			return nil, s.Err
		}
	}
	names, fv, fc := keys.Records(), vals.Float(), counts.Float()
	out := make([]types.GroupValue, len(names))
	for i, name := range names {
		out[i] = types.GroupValue{Group: name, Value: fv[i], Count: int(fc[i])}
	}
	return out, nil
}

// Keys lists the distinct present values of groupBy in t, sorted.
func Keys(t *table.Table, groupBy string) ([]string, error) {
	df, err := frame(t, groupBy, "")
	if err != nil {
		return nil, err
	}
	if df.Nrow() == 0 {
		return nil, nil
	}
	agg := df.GroupBy(groupCol).
		Aggregation([]dataframe.AggregationType{dataframe.Aggregation_SUM}, []string{rowsCol}).
		Arrange(dataframe.Sort(groupCol))
	if agg.Err != nil {
		return nil, agg.Err
	}
	return agg.Col(groupCol).Records(), nil
}

// GroupMean averages the value column per group. Groups without a single
// present value are left out.
func GroupMean(t *table.Table, groupBy, value string) ([]types.GroupValue, error) {
	return aggregate(t, groupBy, value, dataframe.Aggregation_MEAN)
}

// GroupSum totals the value column per group. Every group key of t is
// reported; a group of missing values sums to 0.
func GroupSum(t *table.Table, groupBy, value string) ([]types.GroupValue, error) {
	keys, err := Keys(t, groupBy)
	if err != nil {
		return nil, err
	}
	return groupSum(t, groupBy, value, keys)
}

func groupSum(t *table.Table, groupBy, value string, keys []string) ([]types.GroupValue, error) {
	sums, err := aggregate(t, groupBy, value, dataframe.Aggregation_SUM)
	if err != nil {
		return nil, err
	}
	return fill(sums, keys), nil
}

// fill reports a zero for every key absent from values. Listed keys come
// first in key order, then any unlisted groups of values.
func fill(values []types.GroupValue, keys []string) []types.GroupValue {
	if len(keys) == 0 {
		return values
	}
	byKey := make(map[string]types.GroupValue, len(values))
	for _, v := range values {
		byKey[v.Group] = v
	}
	out := make([]types.GroupValue, 0, len(keys))
	listed := make(map[string]bool, len(keys))
	for _, k := range keys {
		if listed[k] {
			continue
		}
		listed[k] = true
		v, ok := byKey[k]
		if !ok {
			v = types.GroupValue{Group: k}
		}
		out = append(out, v)
	}
	for _, v := range values {
		if !listed[v.Group] {
			out = append(out, v)
		}
	}
	return out
}

// TopN returns the n largest groups by value, highest first, or every group
// when n is negative. Ties are ordered by group name.
func TopN(values []types.GroupValue, n int) ([]types.GroupValue, error) {
	if len(values) == 0 || n == 0 {
		return nil, nil
	}
	names := make([]string, len(values))
	vals := make([]float64, len(values))
	counts := make([]int, len(values))
	for i, v := range values {
		names[i], vals[i], counts[i] = v.Group, v.Value, v.Count
	}
	df := dataframe.New(
		series.New(names, series.String, groupCol),
		series.New(vals, series.Float, valueCol),
		series.New(counts, series.Int, countCol),
	).Arrange(dataframe.RevSort(valueCol), dataframe.Sort(groupCol))
	if n > 0 && n < df.Nrow() {
		top := make([]int, n)
		for i := range top {
			top[i] = i
		}
		df = df.Subset(top)
	}
	if df.Err != nil {
		return nil, df.Err
	}
	return groupValues(df, valueCol, countCol)
}

// ArgMin returns the first group with the smallest value.
func ArgMin(values []types.GroupValue) (types.GroupValue, bool) {
	if len(values) == 0 {
		return types.GroupValue{}, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if v.Value < best.Value {
			best = v
		}
	}
	return best, true
}

// ArgMax returns the first group with the largest value.
func ArgMax(values []types.GroupValue) (types.GroupValue, bool) {
	if len(values) == 0 {
		return types.GroupValue{}, false
	}
	best := values[0]
	for _, v := range values[1:] {
		if v.Value > best.Value {
			best = v
		}
	}
	return best, true
}
