package table

import (
	"math"
	"strconv"
)

// Value is a single cell. The zero Value is missing.
type Value struct {
	num   float64
	str   string
	kind  Kind
	valid bool
}

// Float returns a numeric value. NaN is stored as missing.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{num: f, kind: Numeric, valid: true}
}

func Text(s string) Value {
	return Value{str: s, kind: String, valid: true}
}

func Missing() Value { return Value{} }

func (v Value) IsMissing() bool { return !v.valid }

func (v Value) Kind() Kind { return v.kind }

// Float returns the number held by v; ok is false for missing or text values.
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != Numeric {
		return 0, false
	}
	return v.num, true
}

func (v Value) String() string {
	if !v.valid {
		return ""
	}
	if v.kind == Numeric {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.str
}
