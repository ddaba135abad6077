package table

import (
	"fmt"

	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

// Row is a read-only view of one table row.
type Row struct {
	schema *Schema
	values []Value
}

// Get returns the named cell, or a missing Value when the column is unknown.
func (r Row) Get(name string) Value {
	_, i, ok := r.schema.Lookup(name)
	if !ok {
		return Missing()
	}
	return r.values[i]
}

func (r Row) Float(name string) (float64, bool) {
	return r.Get(name).Float()
}

func (r Row) Text(name string) string {
	return r.Get(name).String()
}

func (r Row) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}

// Table is an immutable, ordered set of rows under one schema. Every
// operation returning a *Table builds a new value; rows are never modified
// in place, so derived tables may share row storage.
type Table struct {
	schema Schema
	rows   [][]Value
}

// New validates rows against schema and returns the table. A text value in
// a numeric column yields a NonNumericColumnError.
func New(schema Schema, rows [][]Value) (*Table, error) {
	out := make([][]Value, len(rows))
	for i, row := range rows {
		if len(row) != schema.Len() {
			return nil, fmt.Errorf("row %d: expected %d values, got %d", i, schema.Len(), len(row))
		}
		for j, v := range row {
			col := schema.cols[j]
			if v.IsMissing() || v.Kind() == col.Kind {
				continue
			}
			if col.Kind == Numeric {
				return nil, &NonNumericColumnError{Column: col.Name, Row: i, Value: v.String()}
			}
			// numbers in a string column are kept as their text form
			row = append([]Value(nil), row...)
			row[j] = Text(v.String())
		}
		out[i] = row
	}
	return &Table{schema: schema, rows: out}, nil
}

func (t *Table) Schema() Schema { return t.schema }

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Row(i int) Row {
	return Row{schema: &t.schema, values: t.rows[i]}
}

// Numbers returns the present values of a numeric column in row order.
func (t *Table) Numbers(name string) ([]float64, error) {
	if err := t.schema.RequireNumeric([]string{name}); err != nil {
		return nil, err
	}
	_, idx, _ := t.schema.Lookup(name)
	out := make([]float64, 0, len(t.rows))
	for _, row := range t.rows {
		if f, ok := row[idx].Float(); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// Where keeps the rows for which keep returns true, preserving order.
func (t *Table) Where(keep func(Row) bool) *Table {
	out := &Table{schema: t.schema}
	for _, row := range t.rows {
		if keep(Row{schema: &t.schema, values: row}) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Select returns the rows at the given indices, which must be ascending.
func (t *Table) Select(indices []int) (*Table, error) {
	out := &Table{schema: t.schema, rows: make([][]Value, 0, len(indices))}
	prev := -1
	for _, i := range indices {
		if i <= prev || i >= len(t.rows) {
			return nil, fmt.Errorf("row index %d out of order or range", i)
		}
		out.rows = append(out.rows, t.rows[i])
		prev = i
	}
	return out, nil
}

// Drop removes the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[int]bool, len(names))
	for _, name := range names {
		_, i, ok := t.schema.Lookup(name)
		if !ok {
			return nil, &UnknownColumnError{Column: name}
		}
		drop[i] = true
	}

	var cols []Column
	for i, c := range t.schema.cols {
		if !drop[i] {
			cols = append(cols, c)
		}
	}
	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	out := &Table{schema: schema, rows: make([][]Value, len(t.rows))}
	for r, row := range t.rows {
		kept := make([]Value, 0, len(cols))
		for i, v := range row {
			if !drop[i] {
				kept = append(kept, v)
			}
		}
		out.rows[r] = kept
	}
	return out, nil
}

// WithColumn appends a derived column computed from every row.
func (t *Table) WithColumn(col Column, fn func(Row) Value) (*Table, error) {
	schema, err := NewSchema(append(t.schema.Columns(), col)...)
	if err != nil {
		return nil, err
	}
	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		next := make([]Value, len(row), len(row)+1)
		copy(next, row)
		rows[i] = append(next, fn(Row{schema: &t.schema, values: row}))
	}
	return New(schema, rows)
}

// ReplaceColumn returns a copy of t with the named column's values replaced.
func (t *Table) ReplaceColumn(name string, values []Value) (*Table, error) {
	_, idx, ok := t.schema.Lookup(name)
	if !ok {
		return nil, &UnknownColumnError{Column: name}
	}
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q: expected %d values, got %d", name, len(t.rows), len(values))
	}
	rows := make([][]Value, len(t.rows))
	for i, row := range t.rows {
		next := make([]Value, len(row))
		copy(next, row)
		next[idx] = values[i]
		rows[i] = next
	}
	return New(t.schema, rows)
}

// NullCounts reports the number of missing cells per column in schema order.
func (t *Table) NullCounts() []types.NullCount {
	out := make([]types.NullCount, t.schema.Len())
	for i, c := range t.schema.cols {
		out[i].Column = c.Name
	}
	for _, row := range t.rows {
		for i, v := range row {
			if v.IsMissing() {
				out[i].Missing++
			}
		}
	}
	return out
}
