package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
)

// FromStrings builds a table from a header and raw string records. Columns
// in declared keep their declared kind; the rest are numeric when every
// present cell parses as a number. Blank header names become "Unnamed: i".
func FromStrings(header []string, records [][]string, declared Declared) (*table.Table, error) {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = h
	}
	for name := range declared {
		if !contains(names, name) {
			return nil, &table.UnknownColumnError{Column: name}
		}
	}

	cols := make([]table.Column, len(names))
	for i, name := range names {
		kind, ok := declared[name]
		if !ok {
			kind = inferKind(records, i)
		}
		cols[i] = table.Column{Name: name, Kind: kind}
	}
	schema, err := table.NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	rows := make([][]table.Value, len(records))
	for r, rec := range records {
		if len(rec) != len(cols) {
			return nil, fmt.Errorf("record %d: expected %d fields, got %d", r, len(cols), len(rec))
		}
		row := make([]table.Value, len(cols))
		for i, raw := range rec {
			if IsMissing(raw) {
				continue
			}
			if cols[i].Kind == table.String {
				row[i] = table.Text(raw)
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, &table.NonNumericColumnError{Column: cols[i].Name, Row: r, Value: raw}
			}
			row[i] = table.Float(f)
		}
		rows[r] = row
	}
	return table.New(schema, rows)
}

func inferKind(records [][]string, col int) table.Kind {
	for _, rec := range records {
		if col >= len(rec) || IsMissing(rec[col]) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64); err != nil {
			return table.String
		}
	}
	return table.Numeric
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
