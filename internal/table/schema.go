package table

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	String Kind = iota
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	default:
		return "string"
	}
}

// ParseKind maps a declared column type onto a Kind. The accepted spellings
// cover config files as well as common SQL type names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float", "float64", "double", "real", "decimal",
		"int", "integer", "int64", "bigint", "smallint", "tinyint", "mediumint":
		return Numeric, nil
	case "string", "text", "category", "categorical", "varchar", "char", "date", "datetime":
		return String, nil
	default:
		return String, fmt.Errorf("unsupported column type %q", s)
	}
}

type Column struct {
	Name string
	Kind Kind
}

// Schema is the fixed, ordered column layout shared by every row of a Table.
type Schema struct {
	cols  []Column
	index map[string]int
}

func NewSchema(cols ...Column) (Schema, error) {
	s := Schema{
		cols:  make([]Column, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if c.Name == "" {
			return Schema{}, errors.New("column name is required")
		}
		if _, dup := s.index[c.Name]; dup {
			return Schema{}, fmt.Errorf("duplicate column %q", c.Name)
		}
		s.cols[i] = c
		s.index[c.Name] = i
	}
	return s, nil
}

func (s Schema) Len() int { return len(s.cols) }

func (s Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

func (s Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Numeric returns the names of numeric columns in schema order.
func (s Schema) Numeric() []string {
	var out []string
	for _, c := range s.cols {
		if c.Kind == Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// Lookup returns the column and its position.
func (s Schema) Lookup(name string) (Column, int, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, -1, false
	}
	return s.cols[i], i, true
}

// RequireNumeric checks that every name exists and is numeric.
func (s Schema) RequireNumeric(names []string) error {
	for _, name := range names {
		col, _, ok := s.Lookup(name)
		if !ok {
			return &UnknownColumnError{Column: name}
		}
		if col.Kind != Numeric {
			return &NonNumericColumnError{Column: name, Row: -1}
		}
	}
	return nil
}
