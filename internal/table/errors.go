package table

import "fmt"

// UnknownColumnError reports a column name that is not part of a schema.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// NonNumericColumnError reports a column that was expected to hold numbers.
// Row is -1 when the schema itself declares the column non-numeric.
type NonNumericColumnError struct {
	Column string
	Row    int
	Value  string
}

func (e *NonNumericColumnError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("column %q is not numeric", e.Column)
	}
	return fmt.Sprintf("column %q row %d: non-numeric value %q", e.Column, e.Row, e.Value)
}

// EmptyColumnError reports a column without a single present value.
type EmptyColumnError struct {
	Column string
}

func (e *EmptyColumnError) Error() string {
	return fmt.Sprintf("column %q has no non-missing values", e.Column)
}
